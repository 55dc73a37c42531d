package navigate

import (
	"fmt"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
)

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (*Factory) ID() string {
	return string(models.ActionNavigate)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Destination URL. Supports {{placeholder}} substitution.",
			},
			"wait_until": map[string]any{
				"type":        "string",
				"description": "Load condition to wait for after navigation.",
				"default":     "load",
				"enum":        []string{"load", "domcontentloaded", "networkidle"},
			},
		},
	}
}

func (f *Factory) Create(config map[string]any, _ string, _ *models.SelectorSpec) (protocol.Action, error) {
	action := &Action{WaitUntil: "load"}

	if url, ok := config["url"].(string); ok {
		action.URL = url
	}

	if wait, ok := config["wait_until"].(string); ok && wait != "" {
		action.WaitUntil = wait
	}

	if action.URL == "" {
		return nil, fmt.Errorf("navigate requires a url")
	}

	return action, nil
}
