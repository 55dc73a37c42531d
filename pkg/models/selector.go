package models

import "encoding/json"

// SelectorSpec is a declarative, multi-strategy description of how to locate
// one page element. Strategies are attempted in a fixed order by the element
// resolver; any subset of fields may be present.
type SelectorSpec struct {
	Primary    string            `json:"primary,omitempty"`
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	XPath      string            `json:"xpath,omitempty"`
	CSS        string            `json:"css,omitempty"`
	Text       string            `json:"text,omitempty"`
	Position   *PositionSpec     `json:"position,omitempty"`
}

// PositionSpec locates an element as the Nth child of a parent selector.
// Index is zero-based. It is the least durable strategy and is only used
// when everything else fails.
type PositionSpec struct {
	Parent string `json:"parent"`
	Index  int    `json:"index"`
}

// IsEmpty reports whether no strategy is available at all.
func (s *SelectorSpec) IsEmpty() bool {
	if s == nil {
		return true
	}

	return s.Primary == "" && s.ID == "" && s.Name == "" &&
		len(s.Attributes) == 0 && s.XPath == "" && s.CSS == "" &&
		s.Text == "" && s.Position == nil
}

// String renders the full description for diagnostics; element-not-found
// errors embed it so failures are debuggable without the original page.
func (s *SelectorSpec) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return "<unprintable selector>"
	}

	return string(data)
}
