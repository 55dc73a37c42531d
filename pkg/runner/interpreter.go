package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/protocol"
	"github.com/mfigueira/formpilot/pkg/registry"
	"github.com/mfigueira/formpilot/pkg/template"
)

// Interpreter executes a single step for the current record: parse config
// and selector, substitute template variables, dispatch through the registry,
// retry on failure, tolerate optional steps, settle after success.
type Interpreter struct {
	registry   *registry.Registry
	retryDelay time.Duration
}

func NewInterpreter(reg *registry.Registry, retryDelay time.Duration) *Interpreter {
	return &Interpreter{registry: reg, retryDelay: retryDelay}
}

// ExecuteStep runs one step against the session. A nil return for a failed
// optional step is deliberate: the failure is logged but must not abort the
// record.
func (i *Interpreter) ExecuteStep(ctx context.Context, step *models.Step, session *protocol.Session) error {
	logger := session.Logger.With("step_id", step.ID, "order", step.Order, "action_type", string(step.ActionType))

	config, err := step.ParseConfig()
	if err != nil {
		// Malformed payloads still reach the action as the raw string; the
		// script pipeline recovers several legacy shapes from it.
		logger.Warn("Step config is not valid JSON, passing raw payload through", "error", err)
		config = map[string]any{}
	}

	selector, err := step.ParseSelector()
	if err != nil {
		return err
	}

	config = template.SubstituteMap(config, session.Context, session.Record)
	selector = template.SubstituteSpec(selector, session.Context, session.Record)

	action, err := i.registry.CreateAction(string(step.ActionType), config, string(step.Config), selector)
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", step.Order, step.ActionType, err)
	}

	err = i.executeWithRetries(ctx, step, action, session, logger)
	if err != nil {
		if step.Optional {
			logger.Warn("Optional step failed, continuing", "error", err)

			return nil
		}

		return fmt.Errorf("step %d (%s): %w", step.Order, step.ActionType, err)
	}

	if step.WaitAfter > 0 {
		settle := time.Duration(step.WaitAfter) * time.Millisecond

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settle):
		}
	}

	return nil
}

func (i *Interpreter) executeWithRetries(ctx context.Context, step *models.Step, action protocol.Action, session *protocol.Session, logger *slog.Logger) error {
	attempts := step.RetryCount + 1

	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		_, err = action.Execute(ctx, session)
		if err == nil {
			return nil
		}

		// Retrying cannot help a stopped gate or a dead context.
		if errors.Is(err, ErrWaitAborted) || errors.Is(err, context.Canceled) {
			return err
		}

		if attempt < attempts {
			logger.Warn("Step attempt failed, retrying",
				"attempt", attempt, "remaining", attempts-attempt, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(i.retryDelay):
			}
		}
	}

	return err
}
