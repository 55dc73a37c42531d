package file

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestWorkflow_SaveAndFetch(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	workflow := &models.Workflow{
		ID:             "wf-1",
		Name:           "enrollment entry",
		TargetURL:      "https://portal.example.edu/records",
		DefaultTimeout: 10000,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	got, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, got.Name)
	assert.Equal(t, workflow.TargetURL, got.TargetURL)

	_, err = p.WorkflowByID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestSteps_OrderNormalizedOnSave(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	// Insert with sparse, out-of-order values.
	for _, order := range []int{10, 3, 7} {
		step := &models.Step{
			ID:         "s-" + string(rune('a'+order)),
			WorkflowID: "wf-1",
			Order:      order,
			ActionType: models.ActionWait,
			Config:     json.RawMessage(`{"duration":1}`),
		}
		require.NoError(t, p.SaveStep(ctx, step))
	}

	steps, err := p.StepsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, steps, 3)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Order)
	}
}

func TestSteps_DeleteRenormalizes(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	for i := 1; i <= 4; i++ {
		step := &models.Step{
			ID:         "s" + string(rune('0'+i)),
			WorkflowID: "wf-1",
			Order:      i,
			ActionType: models.ActionWait,
		}
		require.NoError(t, p.SaveStep(ctx, step))
	}

	require.NoError(t, p.DeleteStep(ctx, "wf-1", "s2"))

	steps, err := p.StepsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, []string{"s1", "s3", "s4"}, []string{steps[0].ID, steps[1].ID, steps[2].ID})

	for i, step := range steps {
		assert.Equal(t, i+1, step.Order, "order must stay dense after delete")
	}

	err = p.DeleteStep(ctx, "wf-1", "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsStepNotFound(err))
}

func TestDataSource_Records(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	source := &models.DataSource{
		ID:   "ds-1",
		Name: "fall intake",
		Records: []models.Record{
			{ID: "r1", Data: map[string]any{"name": "A"}},
			{ID: "r2", Data: map[string]any{"name": "B"}},
		},
	}
	require.NoError(t, p.SaveDataSource(ctx, source))

	records, err := p.DataSourceRecords(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Data["name"])

	_, err = p.DataSourceRecords(ctx, "nope")
	require.Error(t, err)
	assert.True(t, persistence.IsDataSourceNotFound(err))
}

func TestExecutionLog_CreateAndPatch(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	entry := &models.ExecutionLog{
		ID:         "log-1",
		WorkflowID: "wf-1",
		Status:     models.ExecutionLogStarted,
		Total:      2,
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.CreateExecutionLog(ctx, entry))

	status := models.ExecutionLogCompleted
	processed, succeeded, failed := 2, 1, 1
	finished := time.Now().UTC()

	require.NoError(t, p.UpdateExecutionLog(ctx, "log-1", models.ExecutionLogPatch{
		Status:     &status,
		Processed:  &processed,
		Succeeded:  &succeeded,
		Failed:     &failed,
		FinishedAt: &finished,
	}))

	got, err := p.ExecutionLogByID(ctx, "log-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionLogCompleted, got.Status)
	assert.Equal(t, 2, got.Processed)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	require.NotNil(t, got.FinishedAt)
}

func TestQueue_StatusLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	require.NoError(t, p.UpdateQueueStatus(ctx, "r1", models.QueueProcessing, ""))

	status, _, err := p.QueueStatusOf(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueProcessing, status)

	require.NoError(t, p.UpdateQueueStatus(ctx, "r1", models.QueueFailed, "element not found"))

	status, msg, err := p.QueueStatusOf(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueFailed, status)
	assert.Equal(t, "element not found", msg)

	require.NoError(t, p.DeleteFromQueue(ctx, "r1"))

	_, _, err = p.QueueStatusOf(ctx, "r1")
	require.Error(t, err)

	// Deleting a record that was never queued is a no-op.
	require.NoError(t, p.DeleteFromQueue(ctx, "never-queued"))
}
