// Package navigate implements the navigate action: load a URL and wait for
// a configurable load condition.
package navigate

import (
	"context"
	"fmt"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/protocol"
)

type Action struct {
	URL       string
	WaitUntil string
}

func (a *Action) Execute(ctx context.Context, session *protocol.Session) (any, error) {
	logger := session.Logger.With("action_type", "navigate", "url", a.URL)
	logger.Info("Navigating")

	if err := session.Driver.Navigate(ctx, a.URL, browser.WaitUntil(a.WaitUntil)); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", a.URL, err)
	}

	return map[string]any{"url": a.URL}, nil
}
