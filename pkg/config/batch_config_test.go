package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueira/formpilot/pkg/models"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

const validBatch = `
workflow:
  name: student records
  target_url: https://portal.example.edu/records
  default_timeout: 5000
steps:
  - action_type: navigate
    config:
      url: https://portal.example.edu/records
  - action_type: type
    selector:
      id: field
    config:
      value: "{{name}}"
  - action_type: click
    selector:
      id: submit
    retry_count: 2
data_source:
  name: spring roster
  records:
    - name: A
    - name: B
`

func TestLoadBatch(t *testing.T) {
	batch, err := LoadBatch(writeBatchFile(t, validBatch))
	require.NoError(t, err)

	assert.NotEmpty(t, batch.Workflow.ID)
	assert.Equal(t, "student records", batch.Workflow.Name)
	assert.Equal(t, 5000, batch.Workflow.DefaultTimeout)
	assert.True(t, batch.Workflow.Active)

	require.Len(t, batch.Steps, 3)
	assert.Equal(t, models.ActionNavigate, batch.Steps[0].ActionType)
	assert.Equal(t, 1, batch.Steps[0].Order)
	assert.Equal(t, 3, batch.Steps[2].Order)
	assert.Equal(t, 2, batch.Steps[2].RetryCount)

	for _, step := range batch.Steps {
		assert.Equal(t, batch.Workflow.ID, step.WorkflowID)
	}

	selector, err := batch.Steps[1].ParseSelector()
	require.NoError(t, err)
	assert.Equal(t, "field", selector.ID)

	require.Len(t, batch.DataSource.Records, 2)
	assert.Equal(t, "A", batch.DataSource.Records[0].Data["name"])
	assert.NotEmpty(t, batch.DataSource.Records[0].ID)
}

func TestLoadBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing file",
			content: "",
			wantErr: "failed to read batch file",
		},
		{
			name: "unknown action",
			content: `
workflow: {name: x-import, target_url: "https://x.test"}
steps:
  - action_type: hover
data_source: {records: [{name: A}]}
`,
			wantErr: `unknown action_type "hover"`,
		},
		{
			name: "element action without selector",
			content: `
workflow: {name: x-import, target_url: "https://x.test"}
steps:
  - action_type: click
data_source: {records: [{name: A}]}
`,
			wantErr: "require a selector",
		},
		{
			name: "no steps",
			content: `
workflow: {name: x-import, target_url: "https://x.test"}
data_source: {records: [{name: A}]}
`,
			wantErr: "no steps",
		},
		{
			name: "no records",
			content: `
workflow: {name: x-import, target_url: "https://x.test"}
steps:
  - action_type: navigate
data_source: {}
`,
			wantErr: "no records",
		},
		{
			name: "workflow without target",
			content: `
workflow: {name: x-import}
steps:
  - action_type: navigate
data_source: {records: [{name: A}]}
`,
			wantErr: "target_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.content != "" {
				path = writeBatchFile(t, tt.content)
			}

			_, err := LoadBatch(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
