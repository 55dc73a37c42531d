// Package waituser implements the wait_for_user action: suspend the run
// until an external continuation signal arrives.
package waituser

import (
	"context"
	"fmt"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
)

const defaultMessage = "Manual intervention required. Continue the run when ready."

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (*Factory) ID() string {
	return string(models.ActionWaitForUser)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Prompt shown to the operator while the run is suspended.",
			},
		},
	}
}

func (f *Factory) Create(config map[string]any, _ string, _ *models.SelectorSpec) (protocol.Action, error) {
	message := defaultMessage
	if m, ok := config["message"].(string); ok && m != "" {
		message = m
	}

	return &Action{Message: message}, nil
}

type Action struct {
	Message string
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "wait_for_user")
	logger.Info("Suspended for operator", "message", a.Message)

	if session.Gate == nil {
		return nil, fmt.Errorf("no continuation gate available")
	}

	if err := session.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	logger.Info("Operator continued the run")

	return nil, nil
}
