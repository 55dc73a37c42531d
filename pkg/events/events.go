// Package events defines event types and structures for run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every run lifecycle event.
const Topic = "formpilot.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent     EventType = "run.started"
	RunProgressEvent    EventType = "run.progress"
	LoginRequiredEvent  EventType = "run.login_required"
	WaitingForUserEvent EventType = "run.waiting_for_user"
	RunCompletedEvent   EventType = "run.completed"
	RunFailedEvent      EventType = "run.failed"
	RunStoppedEvent     EventType = "run.stopped"
	StepFailedEvent     EventType = "run.step_failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	RunID      string         `json:"run_id"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, runID, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		RunID:      runID,
		WorkflowID: workflowID,
	}
}

type RunStarted struct {
	BaseEvent

	DataSourceID string `json:"data_source_id"`
	TotalRecords int    `json:"total_records"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunProgress is emitted after each record finishes, successful or not.
type RunProgress struct {
	BaseEvent

	RecordID  string `json:"record_id"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
}

func (e RunProgress) GetType() EventType {
	return RunProgressEvent
}

// LoginRequired carries enough context for a UI to render a human-actionable
// prompt: the run is suspended on the login page it found itself on.
type LoginRequired struct {
	BaseEvent

	CurrentURL string `json:"current_url"`
	Message    string `json:"message"`
}

func (e LoginRequired) GetType() EventType {
	return LoginRequiredEvent
}

type WaitingForUser struct {
	BaseEvent

	Message    string `json:"message"`
	StepOrder  int    `json:"step_order"`
	CurrentURL string `json:"current_url,omitempty"`
}

func (e WaitingForUser) GetType() EventType {
	return WaitingForUserEvent
}

type RunCompleted struct {
	BaseEvent

	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Total     int           `json:"total"`
	Duration  time.Duration `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunStopped struct {
	BaseEvent

	Processed int `json:"processed"`
}

func (e RunStopped) GetType() EventType {
	return RunStoppedEvent
}

type StepFailed struct {
	BaseEvent

	RecordID   string `json:"record_id"`
	StepOrder  int    `json:"step_order"`
	ActionType string `json:"action_type"`
	Error      string `json:"error"`
}

func (e StepFailed) GetType() EventType {
	return StepFailedEvent
}
