package file

import (
	"context"
	"time"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
)

type queueEntry struct {
	RecordID  string             `json:"record_id"`
	Status    models.QueueStatus `json:"status"`
	Error     string             `json:"error,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (p *Persistence) UpdateQueueStatus(_ context.Context, recordID string, status models.QueueStatus, errorMessage string) error {
	entry := queueEntry{
		RecordID:  recordID,
		Status:    status,
		Error:     errorMessage,
		UpdatedAt: time.Now().UTC(),
	}

	if err := p.write(queueDir, recordID, &entry); err != nil {
		return persistence.NewStoreError("UpdateQueueStatus", "queue", recordID, err)
	}

	return nil
}

func (p *Persistence) DeleteFromQueue(_ context.Context, recordID string) error {
	if err := p.remove(queueDir, recordID); err != nil {
		if notExist(err) {
			// Deleting an absent entry is not a failure; the record may never
			// have been queued.
			return nil
		}

		return persistence.NewStoreError("DeleteFromQueue", "queue", recordID, err)
	}

	return nil
}

// QueueStatusOf is used by tests and the API to inspect a record's queue state.
func (p *Persistence) QueueStatusOf(_ context.Context, recordID string) (models.QueueStatus, string, error) {
	var entry queueEntry

	if err := p.read(queueDir, recordID, &entry); err != nil {
		if notExist(err) {
			return "", "", persistence.NewStoreError("QueueStatusOf", "queue", recordID, persistence.ErrQueueRecordNotFound)
		}

		return "", "", persistence.NewStoreError("QueueStatusOf", "queue", recordID, err)
	}

	return entry.Status, entry.Error, nil
}
