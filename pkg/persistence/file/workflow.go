package file

import (
	"context"
	"sort"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
)

func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	ids, err := p.list(workflowsDir)
	if err != nil {
		if notExist(err) {
			return []*models.Workflow{}, nil
		}

		return nil, persistence.NewStoreError("Workflows", "workflow", "*", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		var workflow models.Workflow
		if err := p.read(workflowsDir, id, &workflow); err != nil {
			return nil, persistence.NewStoreError("Workflows", "workflow", id, err)
		}

		workflows = append(workflows, &workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	if err := p.read(workflowsDir, id, &workflow); err != nil {
		if notExist(err) {
			return nil, persistence.NewStoreError("WorkflowByID", "workflow", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewStoreError("WorkflowByID", "workflow", id, err)
	}

	return &workflow, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := p.write(workflowsDir, workflow.ID, workflow); err != nil {
		return persistence.NewStoreError("SaveWorkflow", "workflow", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	if err := p.remove(workflowsDir, id); err != nil {
		if notExist(err) {
			return persistence.NewStoreError("DeleteWorkflow", "workflow", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewStoreError("DeleteWorkflow", "workflow", id, err)
	}

	// Steps live in a sibling document keyed by workflow ID.
	_ = p.remove(stepsDir, id)

	return nil
}
