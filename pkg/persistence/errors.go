// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStepNotFound indicates a step was not found within the workflow.
	ErrStepNotFound = errors.New("step not found")

	// ErrDataSourceNotFound indicates a data source was not found by the given identifier.
	ErrDataSourceNotFound = errors.New("data source not found")

	// ErrExecutionLogNotFound indicates an execution log entry was not found.
	ErrExecutionLogNotFound = errors.New("execution log not found")

	// ErrQueueRecordNotFound indicates a queue entry was not found for the record.
	ErrQueueRecordNotFound = errors.New("queue record not found")
)

// StoreError wraps storage errors with the failing operation and target.
type StoreError struct {
	Op     string // Operation being performed (e.g., "WorkflowByID", "SaveStep")
	Entity string // Entity kind ("workflow", "step", "data_source", ...)
	ID     string // Target identifier if applicable
	Err    error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a storage error with context.
func NewStoreError(op, entity, id string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsDataSourceNotFound checks if an error indicates a data source was not found.
func IsDataSourceNotFound(err error) bool {
	return errors.Is(err, ErrDataSourceNotFound)
}
