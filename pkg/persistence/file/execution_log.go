package file

import (
	"context"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
)

func (p *Persistence) CreateExecutionLog(_ context.Context, entry *models.ExecutionLog) error {
	if err := p.write(logsDir, entry.ID, entry); err != nil {
		return persistence.NewStoreError("CreateExecutionLog", "execution_log", entry.ID, err)
	}

	return nil
}

func (p *Persistence) UpdateExecutionLog(_ context.Context, id string, patch models.ExecutionLogPatch) error {
	var entry models.ExecutionLog

	if err := p.read(logsDir, id, &entry); err != nil {
		if notExist(err) {
			return persistence.NewStoreError("UpdateExecutionLog", "execution_log", id, persistence.ErrExecutionLogNotFound)
		}

		return persistence.NewStoreError("UpdateExecutionLog", "execution_log", id, err)
	}

	if patch.Status != nil {
		entry.Status = *patch.Status
	}

	if patch.Message != nil {
		entry.Message = *patch.Message
	}

	if patch.Processed != nil {
		entry.Processed = *patch.Processed
	}

	if patch.Succeeded != nil {
		entry.Succeeded = *patch.Succeeded
	}

	if patch.Failed != nil {
		entry.Failed = *patch.Failed
	}

	if patch.FinishedAt != nil {
		entry.FinishedAt = patch.FinishedAt
	}

	if err := p.write(logsDir, id, &entry); err != nil {
		return persistence.NewStoreError("UpdateExecutionLog", "execution_log", id, err)
	}

	return nil
}

// ExecutionLogByID is used by the API and tests to inspect run history.
func (p *Persistence) ExecutionLogByID(_ context.Context, id string) (*models.ExecutionLog, error) {
	var entry models.ExecutionLog

	if err := p.read(logsDir, id, &entry); err != nil {
		if notExist(err) {
			return nil, persistence.NewStoreError("ExecutionLogByID", "execution_log", id, persistence.ErrExecutionLogNotFound)
		}

		return nil, persistence.NewStoreError("ExecutionLogByID", "execution_log", id, err)
	}

	return &entry, nil
}
