package models

// Record is one row of input data replayed through a workflow's data-entry
// steps. The engine never mutates record data.
type Record struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Lookup returns the value for key, if present.
func (r Record) Lookup(key string) (any, bool) {
	v, ok := r.Data[key]

	return v, ok
}

// DataSource is a named batch of records.
type DataSource struct {
	ID      string   `json:"id"`
	Name    string   `json:"name" validate:"required"`
	Records []Record `json:"records"`
}
