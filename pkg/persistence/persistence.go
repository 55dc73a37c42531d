// Package persistence provides the data storage abstraction consumed by the
// execution engine. The engine treats storage as an external collaborator:
// it loads workflow definitions, ordered step lists and record batches, and
// writes execution logs and per-record queue updates back through this port.
package persistence

import (
	"context"

	"github.com/mfigueira/formpilot/pkg/models"
)

// Queue tracks per-record replay status. It is split from the main port so
// that a dedicated store (Redis) can serve it independently of where
// workflows live.
type Queue interface {
	UpdateQueueStatus(ctx context.Context, recordID string, status models.QueueStatus, errorMessage string) error
	DeleteFromQueue(ctx context.Context, recordID string) error
}

type Persistence interface {
	Queue

	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	// StepsByWorkflow returns the workflow's steps ordered by Step.Order.
	// Order values are dense and 1-based at rest; SaveStep and DeleteStep
	// renormalize them.
	StepsByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error)
	SaveStep(ctx context.Context, step *models.Step) error
	DeleteStep(ctx context.Context, workflowID, stepID string) error

	DataSourceByID(ctx context.Context, id string) (*models.DataSource, error)
	DataSourceRecords(ctx context.Context, id string) ([]models.Record, error)
	SaveDataSource(ctx context.Context, source *models.DataSource) error

	CreateExecutionLog(ctx context.Context, entry *models.ExecutionLog) error
	UpdateExecutionLog(ctx context.Context, id string, patch models.ExecutionLogPatch) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
