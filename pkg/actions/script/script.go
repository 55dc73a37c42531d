// Package script implements the execute_script action. The stored payload is
// run through the extraction pipeline at creation time, so a step with a
// truly unusable script fails before the browser is touched.
package script

import (
	"context"
	"fmt"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
	scriptpipe "github.com/mfigueira/formpilot/pkg/script"
)

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (*Factory) ID() string {
	return string(models.ActionExecuteScript)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"script": map[string]any{
				"type":        "string",
				"description": "JavaScript to run in the page context. Receives (record, executionContext).",
			},
			"storeAs": map[string]any{
				"type":        "string",
				"description": "Execution context key to store the result under.",
			},
			"store_as": map[string]any{
				"type":        "string",
				"description": "Legacy spelling of storeAs.",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Legacy field that may hold DOM-querying code.",
			},
		},
	}
}

func (f *Factory) Create(config map[string]any, raw string, _ *models.SelectorSpec) (protocol.Action, error) {
	extracted := scriptpipe.Extract(config, raw)
	if extracted.Empty() {
		return nil, fmt.Errorf("no usable script in step configuration")
	}

	body := scriptpipe.RewriteIIFE(scriptpipe.Normalize(extracted.Body))

	return &Action{Body: body, StoreAs: extracted.StoreAs, Shape: extracted.Shape}, nil
}

type Action struct {
	Body    string
	StoreAs string
	Shape   scriptpipe.Shape
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "execute_script", "shape", string(a.Shape))

	invocation, err := scriptpipe.BuildInvocation(a.Body, session.Record.Data, session.Context.Values)
	if err != nil {
		return nil, err
	}

	logger.Info("Evaluating script", "store_as", a.StoreAs)

	result, err := session.Driver.Evaluate(ctx, invocation)
	if err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}

	result = scriptpipe.NormalizeResult(result)

	if a.StoreAs != "" {
		session.Context.Store(a.StoreAs, result)
		logger.Info("Stored script result", "key", a.StoreAs)
	}

	return result, nil
}
