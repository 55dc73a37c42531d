package file

import (
	"context"
	"sort"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
)

// StepsByWorkflow returns the workflow's steps ordered by Step.Order.
func (p *Persistence) StepsByWorkflow(_ context.Context, workflowID string) ([]*models.Step, error) {
	steps, err := p.loadSteps(workflowID)
	if err != nil {
		return nil, persistence.NewStoreError("StepsByWorkflow", "step", workflowID, err)
	}

	return steps, nil
}

// SaveStep inserts or replaces a step and renormalizes order values so they
// stay dense, unique and 1-based.
func (p *Persistence) SaveStep(_ context.Context, step *models.Step) error {
	steps, err := p.loadSteps(step.WorkflowID)
	if err != nil {
		return persistence.NewStoreError("SaveStep", "step", step.ID, err)
	}

	replaced := false

	for i, existing := range steps {
		if existing.ID == step.ID {
			steps[i] = step
			replaced = true

			break
		}
	}

	if !replaced {
		steps = append(steps, step)
	}

	normalizeOrder(steps)

	if err := p.write(stepsDir, step.WorkflowID, steps); err != nil {
		return persistence.NewStoreError("SaveStep", "step", step.ID, err)
	}

	return nil
}

// DeleteStep removes a step and renormalizes the remaining order values.
func (p *Persistence) DeleteStep(_ context.Context, workflowID, stepID string) error {
	steps, err := p.loadSteps(workflowID)
	if err != nil {
		return persistence.NewStoreError("DeleteStep", "step", stepID, err)
	}

	kept := steps[:0]
	found := false

	for _, step := range steps {
		if step.ID == stepID {
			found = true

			continue
		}

		kept = append(kept, step)
	}

	if !found {
		return persistence.NewStoreError("DeleteStep", "step", stepID, persistence.ErrStepNotFound)
	}

	normalizeOrder(kept)

	if err := p.write(stepsDir, workflowID, kept); err != nil {
		return persistence.NewStoreError("DeleteStep", "step", stepID, err)
	}

	return nil
}

func (p *Persistence) loadSteps(workflowID string) ([]*models.Step, error) {
	var steps []*models.Step

	if err := p.read(stepsDir, workflowID, &steps); err != nil {
		if notExist(err) {
			return []*models.Step{}, nil
		}

		return nil, err
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})

	return steps, nil
}

// normalizeOrder rewrites Order as 1..n preserving the current sort.
func normalizeOrder(steps []*models.Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})

	for i, step := range steps {
		step.Order = i + 1
	}
}
