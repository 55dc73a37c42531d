package models

import "time"

// ExecutionLogStatus marks a lifecycle milestone of one run.
type ExecutionLogStatus string

const (
	ExecutionLogStarted   ExecutionLogStatus = "started"
	ExecutionLogRunning   ExecutionLogStatus = "running"
	ExecutionLogCompleted ExecutionLogStatus = "completed"
	ExecutionLogFailed    ExecutionLogStatus = "failed"
	ExecutionLogStopped   ExecutionLogStatus = "stopped"
)

// ExecutionLog is the append-only record of one run written to the
// persistence port. The engine only creates and patches it; it does not own
// the record beyond those calls.
type ExecutionLog struct {
	ID           string             `json:"id"`
	WorkflowID   string             `json:"workflow_id"`
	DataSourceID string             `json:"data_source_id"`
	Status       ExecutionLogStatus `json:"status"`
	Message      string             `json:"message,omitempty"`
	Total        int                `json:"total"`
	Processed    int                `json:"processed"`
	Succeeded    int                `json:"succeeded"`
	Failed       int                `json:"failed"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
}

// ExecutionLogPatch is a partial update applied to an execution log entry.
// Nil fields are left untouched.
type ExecutionLogPatch struct {
	Status     *ExecutionLogStatus `json:"status,omitempty"`
	Message    *string             `json:"message,omitempty"`
	Processed  *int                `json:"processed,omitempty"`
	Succeeded  *int                `json:"succeeded,omitempty"`
	Failed     *int                `json:"failed,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// QueueStatus tracks one record through the replay queue.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueDone       QueueStatus = "done"
	QueueFailed     QueueStatus = "failed"
)
