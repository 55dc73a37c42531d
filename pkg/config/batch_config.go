// Package config provides loading of batch definition files. A batch file
// bundles a workflow, its steps and a data source in one YAML document so a
// whole replay setup can be seeded into persistence with a single import.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mfigueira/formpilot/pkg/models"
)

// BatchFile is the on-disk YAML structure.
type BatchFile struct {
	Workflow   WorkflowFile   `yaml:"workflow"`
	Steps      []StepFile     `yaml:"steps"`
	DataSource DataSourceFile `yaml:"data_source"`
}

type WorkflowFile struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	TargetURL      string `yaml:"target_url"`
	DefaultTimeout int    `yaml:"default_timeout"`
}

type StepFile struct {
	ActionType string         `yaml:"action_type"`
	Selector   map[string]any `yaml:"selector"`
	Config     map[string]any `yaml:"config"`
	WaitAfter  int            `yaml:"wait_after"`
	RetryCount int            `yaml:"retry_count"`
	Optional   bool           `yaml:"is_optional"`
}

type DataSourceFile struct {
	ID      string           `yaml:"id"`
	Name    string           `yaml:"name"`
	Records []map[string]any `yaml:"records"`
}

// Batch is the loaded, model-level result of a batch file.
type Batch struct {
	Workflow   *models.Workflow
	Steps      []*models.Step
	DataSource *models.DataSource
}

// LoadBatch reads and validates a batch definition file. Missing IDs are
// generated; step order follows file order.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}

	var file BatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	workflow, err := file.Workflow.toModel()
	if err != nil {
		return nil, err
	}

	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("batch file has no steps")
	}

	steps := make([]*models.Step, 0, len(file.Steps))

	for i, stepFile := range file.Steps {
		step, err := stepFile.toModel(workflow.ID, i+1)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
	}

	dataSource, err := file.DataSource.toModel()
	if err != nil {
		return nil, err
	}

	return &Batch{Workflow: workflow, Steps: steps, DataSource: dataSource}, nil
}

func (w WorkflowFile) toModel() (*models.Workflow, error) {
	if w.Name == "" {
		return nil, fmt.Errorf("batch workflow needs a name")
	}

	if w.TargetURL == "" {
		return nil, fmt.Errorf("batch workflow needs a target_url")
	}

	id := w.ID
	if id == "" {
		id = uuid.New().String()
	}

	return &models.Workflow{
		ID:             id,
		Name:           w.Name,
		TargetURL:      w.TargetURL,
		DefaultTimeout: w.DefaultTimeout,
		Active:         true,
	}, nil
}

func (s StepFile) toModel(workflowID string, order int) (*models.Step, error) {
	actionType := models.ActionType(s.ActionType)
	if !actionType.Valid() {
		return nil, fmt.Errorf("step %d: unknown action_type %q", order, s.ActionType)
	}

	step := &models.Step{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Order:      order,
		ActionType: actionType,
		WaitAfter:  s.WaitAfter,
		RetryCount: s.RetryCount,
		Optional:   s.Optional,
	}

	if s.Selector != nil {
		raw, err := json.Marshal(s.Selector)
		if err != nil {
			return nil, fmt.Errorf("step %d: encode selector: %w", order, err)
		}

		step.Selector = raw
	}

	if actionType.NeedsElement() && s.Selector == nil {
		return nil, fmt.Errorf("step %d: %s steps require a selector", order, actionType)
	}

	if s.Config != nil {
		raw, err := json.Marshal(s.Config)
		if err != nil {
			return nil, fmt.Errorf("step %d: encode config: %w", order, err)
		}

		step.Config = raw
	}

	return step, nil
}

func (d DataSourceFile) toModel() (*models.DataSource, error) {
	if len(d.Records) == 0 {
		return nil, fmt.Errorf("batch data source has no records")
	}

	id := d.ID
	if id == "" {
		id = uuid.New().String()
	}

	name := d.Name
	if name == "" {
		name = "imported batch"
	}

	records := make([]models.Record, 0, len(d.Records))
	for i, data := range d.Records {
		records = append(records, models.Record{
			ID:   fmt.Sprintf("%s-%d", id, i+1),
			Data: data,
		})
	}

	return &models.DataSource{ID: id, Name: name, Records: records}, nil
}
