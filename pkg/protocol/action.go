// Package protocol defines the interfaces and contracts for pluggable
// browser actions.
package protocol

import (
	"context"
	"log/slog"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/models"
)

// ElementResolver resolves a declarative selector against the live page.
type ElementResolver interface {
	Resolve(ctx context.Context, spec *models.SelectorSpec) (browser.Locator, error)
}

// Continuation is the gate a blocking action waits on until an operator
// signals the run to continue. Wait returns an error when the run is
// stopped instead of continued.
type Continuation interface {
	Wait(ctx context.Context) error
}

// Session carries the per-record execution environment actions run against.
// The browser session itself outlives the record: one driver is shared by
// every record of a run so login state survives.
type Session struct {
	Driver   browser.Driver
	Resolver ElementResolver
	Record   models.Record
	Context  *models.ExecutionContext
	Gate     Continuation
	Logger   *slog.Logger
}

// Action is one executable workflow step.
type Action interface {
	Execute(ctx context.Context, session *Session) (any, error)
}

// ActionFactory creates action instances and provides metadata about the
// action type.
type ActionFactory interface {
	// ID returns the action type identifier stored in workflow steps.
	ID() string

	// Schema returns the JSON schema the step configuration must satisfy.
	Schema() map[string]any

	// Create builds an action from validated configuration. Raw is the
	// stored payload before parsing, for action types that must recover
	// from malformed legacy configs. Selector is nil for action types that
	// do not target an element.
	Create(config map[string]any, raw string, selector *models.SelectorSpec) (Action, error)
}
