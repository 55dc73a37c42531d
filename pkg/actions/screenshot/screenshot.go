// Package screenshot implements the screenshot action: capture the page to
// a configured path, creating parent directories as needed.
package screenshot

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
	return string(models.ActionScreenshot)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path to write the capture to. Supports {{placeholder}} substitution.",
			},
			"full_page": map[string]any{
				"type":        "boolean",
				"description": "Capture the full scrollable page instead of the viewport.",
				"default":     false,
			},
		},
		"required": []string{"path"},
	}
}

func (f *Factory) Create(config map[string]any, _ string, _ *models.SelectorSpec) (protocol.Action, error) {
	path, _ := config["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("screenshot requires a path")
	}

	fullPage, _ := config["full_page"].(bool)

	return &Action{Path: path, FullPage: fullPage}, nil
}

type Action struct {
	Path     string
	FullPage bool
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	session.Logger.Info("Capturing screenshot", "action_type", "screenshot", "path", a.Path)

	if err := session.Driver.Screenshot(ctx, a.Path, a.FullPage); err != nil {
		return nil, fmt.Errorf("screenshot to %s: %w", a.Path, err)
	}

	return map[string]any{"path": a.Path}, nil
}
