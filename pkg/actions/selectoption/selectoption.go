// Package selectoption implements the select action: resolve a select
// element and pick the configured option value.
package selectoption

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
	return string(models.ActionSelect)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{
				"type":        "string",
				"description": "Option value to select. Supports {{placeholder}} substitution.",
			},
		},
		"required": []string{"value"},
	}
}

func (f *Factory) Create(config map[string]any, _ string, selector *models.SelectorSpec) (protocol.Action, error) {
	if selector.IsEmpty() {
		return nil, fmt.Errorf("select requires a selector")
	}

	value, _ := config["value"].(string)

	return &Action{Selector: selector, Value: value}, nil
}

type Action struct {
	Selector *models.SelectorSpec
	Value    string
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "select")

	loc, err := session.Resolver.Resolve(ctx, a.Selector)
	if err != nil {
		return nil, err
	}

	logger.Info("Selecting option", "locator", loc.Expr, "value", a.Value)

	if err := session.Driver.SelectOption(ctx, loc, a.Value); err != nil {
		return nil, fmt.Errorf("select %q on %s: %w", a.Value, loc.Expr, err)
	}

	return nil, nil
}
