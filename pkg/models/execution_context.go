package models

// ExecutionContext is the run-scoped mutable key→value store. It is created
// empty at run start and discarded at run end; only execute_script steps
// write to it, and later steps consult it during template substitution
// before falling back to the current record. It is never persisted.
type ExecutionContext struct {
	RunID      string
	WorkflowID string
	Values     map[string]any
}

func NewExecutionContext(runID, workflowID string) *ExecutionContext {
	return &ExecutionContext{
		RunID:      runID,
		WorkflowID: workflowID,
		Values:     make(map[string]any),
	}
}

func (c *ExecutionContext) Lookup(key string) (any, bool) {
	if c == nil {
		return nil, false
	}

	v, ok := c.Values[key]

	return v, ok
}

func (c *ExecutionContext) Store(key string, value any) {
	c.Values[key] = value
}
