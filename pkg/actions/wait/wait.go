// Package wait implements the wait action: a pure delay.
package wait

import (
	"context"
	"time"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
)

const defaultDuration = time.Second

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (*Factory) ID() string {
	return string(models.ActionWait)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "number",
				"description": "How long to wait, in milliseconds.",
				"minimum":     0,
			},
		},
	}
}

func (f *Factory) Create(config map[string]any, _ string, _ *models.SelectorSpec) (protocol.Action, error) {
	duration := defaultDuration

	if ms, ok := config["duration"].(float64); ok && ms >= 0 {
		duration = time.Duration(ms) * time.Millisecond
	}

	return &Action{Duration: duration}, nil
}

type Action struct {
	Duration time.Duration
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	session.Logger.Info("Waiting", "action_type", "wait", "duration", a.Duration)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(a.Duration):
		return nil, nil
	}
}
