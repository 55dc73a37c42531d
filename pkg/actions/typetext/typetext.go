// Package typetext implements the type action: resolve the target element,
// clear it, and write the configured value.
package typetext

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
	return string(models.ActionTypeText)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{
				"type":        "string",
				"description": "Text to type. Supports {{placeholder}} substitution.",
			},
		},
		"required": []string{"value"},
	}
}

func (f *Factory) Create(config map[string]any, _ string, selector *models.SelectorSpec) (protocol.Action, error) {
	if selector.IsEmpty() {
		return nil, fmt.Errorf("type requires a selector")
	}

	value, _ := config["value"].(string)

	return &Action{Selector: selector, Value: value}, nil
}

type Action struct {
	Selector *models.SelectorSpec
	Value    string
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "type")

	loc, err := session.Resolver.Resolve(ctx, a.Selector)
	if err != nil {
		return nil, err
	}

	logger.Info("Typing into element", "locator", loc.Expr, "chars", len(a.Value))

	if err := session.Driver.Type(ctx, loc, a.Value); err != nil {
		return nil, fmt.Errorf("type into %s: %w", loc.Expr, err)
	}

	return nil, nil
}
