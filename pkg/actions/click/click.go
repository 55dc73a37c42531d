// Package click implements the click action: resolve the target element and
// click it.
package click

import (
	"context"
	"fmt"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
)

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (*Factory) ID() string {
	return string(models.ActionClick)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (f *Factory) Create(_ map[string]any, _ string, selector *models.SelectorSpec) (protocol.Action, error) {
	if selector.IsEmpty() {
		return nil, fmt.Errorf("click requires a selector")
	}

	return &Action{Selector: selector}, nil
}

type Action struct {
	Selector *models.SelectorSpec
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "click")

	loc, err := session.Resolver.Resolve(ctx, a.Selector)
	if err != nil {
		return nil, err
	}

	logger.Info("Clicking element", "locator", loc.Expr)

	if err := session.Driver.Click(ctx, loc); err != nil {
		return nil, fmt.Errorf("click %s: %w", loc.Expr, err)
	}

	return nil, nil
}
