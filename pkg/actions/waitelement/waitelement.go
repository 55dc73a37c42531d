// Package waitelement implements the wait_for_element action: block until
// the selector resolves or the configured window elapses.
package waitelement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
	"github.com/mfigueira/formpilot/pkg/resolver"
)

const (
	defaultTimeout = 30 * time.Second
	pollInterval   = 250 * time.Millisecond
)

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (*Factory) ID() string {
	return string(models.ActionWaitForElement)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timeout": map[string]any{
				"type":        "number",
				"description": "How long to keep probing before failing, in milliseconds.",
				"minimum":     0,
			},
		},
	}
}

func (f *Factory) Create(config map[string]any, _ string, selector *models.SelectorSpec) (protocol.Action, error) {
	if selector.IsEmpty() {
		return nil, fmt.Errorf("wait_for_element requires a selector")
	}

	timeout := defaultTimeout
	if ms, ok := config["timeout"].(float64); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	return &Action{Selector: selector, Timeout: timeout}, nil
}

type Action struct {
	Selector *models.SelectorSpec
	Timeout  time.Duration
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "wait_for_element")
	logger.Info("Waiting for element", "timeout", a.Timeout)

	deadline := time.Now().Add(a.Timeout)

	for {
		loc, err := session.Resolver.Resolve(ctx, a.Selector)
		if err == nil {
			return map[string]any{"locator": loc.Expr}, nil
		}

		var notFound *resolver.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("element did not appear within %s: %w", a.Timeout, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
