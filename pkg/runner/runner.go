// Package runner owns the run lifecycle: it loads a workflow, its ordered
// steps and the record batch, opens one browser session for the whole run,
// replays the steps once per record, and reports progress through the
// persistence port and the event bus. At most one run is active per Runner.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/eventbus"
	"github.com/mfigueira/formpilot/pkg/events"
	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
	"github.com/mfigueira/formpilot/pkg/protocol"
	"github.com/mfigueira/formpilot/pkg/registry"
	"github.com/mfigueira/formpilot/pkg/resolver"
)

var (
	// ErrRunActive is returned by Start while another run owns the executor.
	ErrRunActive = errors.New("a run is already active")

	// ErrRunStopped is the internal checkpoint result when Stop was requested.
	ErrRunStopped = errors.New("run stopped")

	// ErrNoActiveRun is returned by the control methods when the executor is
	// idle.
	ErrNoActiveRun = errors.New("no active run")
)

// DriverFactory builds the browser session for one run.
type DriverFactory func() browser.Driver

// Config tunes the executor. Zero values fall back to defaults.
type Config struct {
	RetryDelay    time.Duration // between step retry attempts
	PausePoll     time.Duration // how often a paused run re-checks its status
	LoginWait     time.Duration // bounded window for manual login
	LoginPoll     time.Duration // DOM re-probe interval during login wait
	ResolverTries int
	ResolverDelay time.Duration
}

func (c *Config) withDefaults() {
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}

	if c.PausePoll <= 0 {
		c.PausePoll = 100 * time.Millisecond
	}

	if c.LoginWait <= 0 {
		c.LoginWait = 5 * time.Minute
	}

	if c.LoginPoll <= 0 {
		c.LoginPoll = 2 * time.Second
	}

	if c.ResolverTries <= 0 {
		c.ResolverTries = resolver.DefaultAttempts
	}

	if c.ResolverDelay <= 0 {
		c.ResolverDelay = resolver.DefaultDelay
	}
}

// Run is a snapshot of the active (or most recent) run.
type Run struct {
	ID           string           `json:"id"`
	WorkflowID   string           `json:"workflow_id"`
	DataSourceID string           `json:"data_source_id"`
	LogID        string           `json:"log_id"`
	Status       models.RunStatus `json:"status"`
	Total        int              `json:"total"`
	Processed    int              `json:"processed"`
	Succeeded    int              `json:"succeeded"`
	Failed       int              `json:"failed"`
	StartedAt    time.Time        `json:"started_at"`
}

type Runner struct {
	persist   persistence.Persistence
	queue     persistence.Queue
	bus       eventbus.EventPublisher
	registry  *registry.Registry
	newDriver DriverFactory
	logger    *slog.Logger
	config    Config

	gate   *Gate
	interp *Interpreter

	mu      sync.Mutex
	status  models.RunStatus
	current *Run
}

func NewRunner(
	persist persistence.Persistence,
	queue persistence.Queue,
	bus eventbus.EventPublisher,
	reg *registry.Registry,
	newDriver DriverFactory,
	logger *slog.Logger,
	config Config,
) *Runner {
	config.withDefaults()

	return &Runner{
		persist:   persist,
		queue:     queue,
		bus:       bus,
		registry:  reg,
		newDriver: newDriver,
		logger:    logger,
		config:    config,
		gate:      NewGate(),
		interp:    NewInterpreter(reg, config.RetryDelay),
		status:    models.RunStatusIdle,
	}
}

// Status returns the executor's lifecycle state.
func (r *Runner) Status() models.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// CurrentRun returns a snapshot of the active or most recent run, or nil if
// none has been started.
func (r *Runner) CurrentRun() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}

	snapshot := *r.current
	snapshot.Status = r.status

	return &snapshot
}

func (r *Runner) transition(to models.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.transitionLocked(to)
}

func (r *Runner) transitionLocked(to models.RunStatus) error {
	if !r.status.CanTransition(to) {
		return fmt.Errorf("illegal run state transition: %s -> %s", r.status, to)
	}

	r.status = to

	return nil
}

// Pause requests a cooperative pause, honored at the next step or record
// boundary.
func (r *Runner) Pause() error {
	return r.transition(models.RunStatusPaused)
}

// Resume lifts a pause. Resuming anything but a paused run is rejected:
// idle -> running is a legal transition, but only Start may take it.
func (r *Runner) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RunStatusPaused {
		return fmt.Errorf("cannot resume: run is %s, not paused", r.status)
	}

	return r.transitionLocked(models.RunStatusRunning)
}

// Stop halts the run at the next checkpoint and releases any pending wait.
func (r *Runner) Stop() error {
	r.mu.Lock()

	if !r.status.Active() {
		r.mu.Unlock()

		return ErrNoActiveRun
	}

	if err := r.transitionLocked(models.RunStatusStopped); err != nil {
		r.mu.Unlock()

		return err
	}

	r.mu.Unlock()

	r.gate.Abort()

	return nil
}

// Continue satisfies a pending wait_for_user or login wait.
func (r *Runner) Continue() error {
	return r.gate.Signal()
}

// Start executes a full run and blocks until it finishes. It fails fast when
// another run is active.
func (r *Runner) Start(ctx context.Context, workflowID, dataSourceID string) error {
	run, err := r.begin(workflowID, dataSourceID)
	if err != nil {
		return err
	}

	return r.execute(ctx, run)
}

// StartAsync claims the executor synchronously (so callers get an immediate
// conflict error) and executes the run in the background.
func (r *Runner) StartAsync(ctx context.Context, workflowID, dataSourceID string) (string, error) {
	run, err := r.begin(workflowID, dataSourceID)
	if err != nil {
		return "", err
	}

	go func() {
		if err := r.execute(ctx, run); err != nil {
			r.logger.Error("Run finished with error", "run_id", run.ID, "error", err)
		}
	}()

	return run.ID, nil
}

// begin claims the executor and records the new run.
func (r *Runner) begin(workflowID, dataSourceID string) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.Active() {
		return nil, ErrRunActive
	}

	// A finished run parks in completed or stopped until the next one claims
	// the executor.
	if r.status != models.RunStatusIdle {
		if err := r.transitionLocked(models.RunStatusIdle); err != nil {
			return nil, err
		}
	}

	if err := r.transitionLocked(models.RunStatusRunning); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		DataSourceID: dataSourceID,
		StartedAt:    time.Now().UTC(),
	}

	r.current = run
	r.gate.Reset()

	return run, nil
}

func (r *Runner) execute(ctx context.Context, run *Run) error {
	logger := r.logger.With("run_id", run.ID, "workflow_id", run.WorkflowID)

	workflow, steps, records, err := r.load(ctx, run)
	if err != nil {
		logger.Error("Run aborted before browser start", "error", err)
		r.publish(ctx, run, events.RunFailed{
			BaseEvent: events.NewBaseEvent(events.RunFailedEvent, run.ID, run.WorkflowID),
			Error:     err.Error(),
		})
		r.finish(models.RunStatusStopped)

		return err
	}

	entry := &models.ExecutionLog{
		ID:           uuid.New().String(),
		WorkflowID:   run.WorkflowID,
		DataSourceID: run.DataSourceID,
		Status:       models.ExecutionLogStarted,
		Total:        len(records),
		StartedAt:    run.StartedAt,
	}
	if err := r.persist.CreateExecutionLog(ctx, entry); err != nil {
		logger.Error("Could not create execution log", "error", err)
		r.finish(models.RunStatusStopped)

		return err
	}

	r.mu.Lock()
	run.LogID = entry.ID
	run.Total = len(records)
	r.mu.Unlock()

	r.publish(ctx, run, events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, run.ID, run.WorkflowID),
		DataSourceID: run.DataSourceID,
		TotalRecords: len(records),
	})

	driver := r.newDriver()
	if err := driver.Launch(ctx); err != nil {
		err = fmt.Errorf("launch browser: %w", err)
		r.fail(ctx, run, err)

		return err
	}

	defer func() {
		if closeErr := driver.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Warn("Browser session close failed", "error", closeErr)
		}
	}()

	err = r.replayBatch(ctx, run, workflow, steps, records, driver, logger)

	switch {
	case errors.Is(err, ErrRunStopped):
		logger.Info("Run stopped", "processed", run.Processed)
		r.logPatch(ctx, run, models.ExecutionLogStopped, "stopped by operator")
		r.publish(ctx, run, events.RunStopped{
			BaseEvent: events.NewBaseEvent(events.RunStoppedEvent, run.ID, run.WorkflowID),
			Processed: run.Processed,
		})

		return nil
	case err != nil:
		r.fail(ctx, run, err)

		return err
	}

	logger.Info("Run completed",
		"total", run.Total, "succeeded", run.Succeeded, "failed", run.Failed)
	r.logPatch(ctx, run, models.ExecutionLogCompleted, "")
	r.publish(ctx, run, events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, run.ID, run.WorkflowID),
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		Total:     run.Total,
		Duration:  time.Since(run.StartedAt),
	})
	r.finish(models.RunStatusCompleted)

	return nil
}

// load fetches everything the run needs. Configuration errors are fatal and
// happen before any browser interaction.
func (r *Runner) load(ctx context.Context, run *Run) (*models.Workflow, []*models.Step, []models.Record, error) {
	workflow, err := r.persist.WorkflowByID(ctx, run.WorkflowID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load workflow %s: %w", run.WorkflowID, err)
	}

	steps, err := r.persist.StepsByWorkflow(ctx, run.WorkflowID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load steps of workflow %s: %w", run.WorkflowID, err)
	}

	if len(steps) == 0 {
		return nil, nil, nil, fmt.Errorf("workflow %s has no steps to execute", run.WorkflowID)
	}

	records, err := r.persist.DataSourceRecords(ctx, run.DataSourceID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load records of data source %s: %w", run.DataSourceID, err)
	}

	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("data source %s has no records to replay", run.DataSourceID)
	}

	return workflow, steps, records, nil
}

func (r *Runner) replayBatch(
	ctx context.Context,
	run *Run,
	workflow *models.Workflow,
	steps []*models.Step,
	records []models.Record,
	driver browser.Driver,
	logger *slog.Logger,
) error {
	execCtx := models.NewExecutionContext(run.ID, run.WorkflowID)

	// The workflow's default timeout is the element resolution window: a
	// selector that has not matched within it is reported not found even if
	// the retry schedule has attempts left.
	res := resolver.New(driver, logger).
		WithRetry(r.config.ResolverTries, r.config.ResolverDelay).
		WithWindow(time.Duration(workflow.DefaultTimeout) * time.Millisecond)

	sessionReady := false

	for _, record := range records {
		if err := r.checkpoint(ctx); err != nil {
			return err
		}

		recordLogger := logger.With("record_id", record.ID)

		if err := r.queue.UpdateQueueStatus(ctx, record.ID, models.QueueProcessing, ""); err != nil {
			recordLogger.Warn("Queue status update failed", "error", err)
		}

		session := &protocol.Session{
			Driver:   driver,
			Resolver: res,
			Record:   record,
			Context:  execCtx,
			Gate:     r.gate,
			Logger:   recordLogger,
		}

		err := r.replayRecord(ctx, run, steps, session, sessionReady, driver, recordLogger)

		// Stop and pause propagate; anything else is isolated to the record.
		if errors.Is(err, ErrRunStopped) || errors.Is(err, ErrWaitAborted) {
			return ErrRunStopped
		}

		if err != nil && errors.Is(err, context.Canceled) {
			return err
		}

		r.mu.Lock()
		run.Processed++

		if err != nil {
			run.Failed++
		} else {
			run.Succeeded++
		}

		r.mu.Unlock()

		if err != nil {
			recordLogger.Error("Record failed", "error", err)

			if qErr := r.queue.UpdateQueueStatus(ctx, record.ID, models.QueueFailed, err.Error()); qErr != nil {
				recordLogger.Warn("Queue status update failed", "error", qErr)
			}
		} else {
			if qErr := r.queue.UpdateQueueStatus(ctx, record.ID, models.QueueDone, ""); qErr != nil {
				recordLogger.Warn("Queue status update failed", "error", qErr)
			}

			if qErr := r.queue.DeleteFromQueue(ctx, record.ID); qErr != nil {
				recordLogger.Warn("Queue delete failed", "error", qErr)
			}

			sessionReady = true
		}

		r.progress(ctx, run, record.ID)
	}

	return nil
}

func (r *Runner) replayRecord(
	ctx context.Context,
	run *Run,
	steps []*models.Step,
	session *protocol.Session,
	sessionReady bool,
	driver browser.Driver,
	logger *slog.Logger,
) error {
	firstNavigation := !sessionReady

	for _, step := range steps {
		if err := r.checkpoint(ctx); err != nil {
			return err
		}

		// The browser session is shared across the batch, so login and
		// navigation steps only run for the first record.
		if sessionReady && (step.ActionType == models.ActionNavigate || step.ActionType == models.ActionWaitForUser) {
			logger.Debug("Skipping session step on warmed session", "order", step.Order, "action_type", string(step.ActionType))

			continue
		}

		if step.ActionType == models.ActionWaitForUser {
			if err := r.suspendForUser(ctx, run, step, session); err != nil {
				return err
			}

			continue
		}

		if err := r.interp.ExecuteStep(ctx, step, session); err != nil {
			r.publish(ctx, run, events.StepFailed{
				BaseEvent:  events.NewBaseEvent(events.StepFailedEvent, run.ID, run.WorkflowID),
				RecordID:   session.Record.ID,
				StepOrder:  step.Order,
				ActionType: string(step.ActionType),
				Error:      err.Error(),
			})

			return err
		}

		if firstNavigation && step.ActionType == models.ActionNavigate {
			firstNavigation = false

			if err := r.suspendForLogin(ctx, run, driver, logger); err != nil {
				return err
			}
		}
	}

	return nil
}

// suspendForUser transitions to waiting_for_user around a wait_for_user step
// so the status and the emitted event match what the operator sees.
func (r *Runner) suspendForUser(ctx context.Context, run *Run, step *models.Step, session *protocol.Session) error {
	if err := r.transition(models.RunStatusWaitingForUser); err != nil {
		return err
	}

	url, _ := session.Driver.CurrentURL(ctx)

	message := "Manual intervention required."
	if config, err := step.ParseConfig(); err == nil {
		if m, ok := config["message"].(string); ok && m != "" {
			message = m
		}
	}

	r.publish(ctx, run, events.WaitingForUser{
		BaseEvent:  events.NewBaseEvent(events.WaitingForUserEvent, run.ID, run.WorkflowID),
		Message:    message,
		StepOrder:  step.Order,
		CurrentURL: url,
	})

	if err := r.interp.ExecuteStep(ctx, step, session); err != nil {
		return err
	}

	return r.transition(models.RunStatusRunning)
}

// suspendForLogin checks the page after the initial navigation and, when a
// login prompt is detected, parks the run until the operator continues or a
// DOM poll confirms authentication.
func (r *Runner) suspendForLogin(ctx context.Context, run *Run, driver browser.Driver, logger *slog.Logger) error {
	required, url := loginRequired(ctx, driver)
	if !required {
		return nil
	}

	logger.Info("Login required, suspending run", "url", url)

	if err := r.transition(models.RunStatusWaitingForUser); err != nil {
		return err
	}

	r.publish(ctx, run, events.LoginRequired{
		BaseEvent:  events.NewBaseEvent(events.LoginRequiredEvent, run.ID, run.WorkflowID),
		CurrentURL: url,
		Message:    "Authentication required. Log in in the browser window, then continue the run.",
	})

	if err := awaitLogin(ctx, r.gate, driver, r.config.LoginWait, r.config.LoginPoll); err != nil {
		return err
	}

	logger.Info("Login wait satisfied, resuming")

	return r.transition(models.RunStatusRunning)
}

// checkpoint is consulted at record and step boundaries: it blocks while
// paused and surfaces a stop request.
func (r *Runner) checkpoint(ctx context.Context) error {
	for {
		switch r.Status() {
		case models.RunStatusStopped:
			return ErrRunStopped
		case models.RunStatusPaused:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.PausePoll):
			}
		default:
			return nil
		}
	}
}

func (r *Runner) progress(ctx context.Context, run *Run, recordID string) {
	snapshot := r.CurrentRun()

	status := models.ExecutionLogRunning
	patch := models.ExecutionLogPatch{
		Status:    &status,
		Processed: &snapshot.Processed,
		Succeeded: &snapshot.Succeeded,
		Failed:    &snapshot.Failed,
	}

	if err := r.persist.UpdateExecutionLog(ctx, run.LogID, patch); err != nil {
		r.logger.Warn("Execution log update failed", "run_id", run.ID, "error", err)
	}

	r.publish(ctx, run, events.RunProgress{
		BaseEvent: events.NewBaseEvent(events.RunProgressEvent, run.ID, run.WorkflowID),
		RecordID:  recordID,
		Processed: snapshot.Processed,
		Succeeded: snapshot.Succeeded,
		Failed:    snapshot.Failed,
		Total:     snapshot.Total,
	})
}

func (r *Runner) logPatch(ctx context.Context, run *Run, status models.ExecutionLogStatus, message string) {
	now := time.Now().UTC()
	snapshot := r.CurrentRun()

	patch := models.ExecutionLogPatch{
		Status:     &status,
		Processed:  &snapshot.Processed,
		Succeeded:  &snapshot.Succeeded,
		Failed:     &snapshot.Failed,
		FinishedAt: &now,
	}
	if message != "" {
		patch.Message = &message
	}

	if err := r.persist.UpdateExecutionLog(ctx, run.LogID, patch); err != nil {
		r.logger.Warn("Execution log update failed", "run_id", run.ID, "error", err)
	}
}

func (r *Runner) fail(ctx context.Context, run *Run, err error) {
	if run.LogID != "" {
		now := time.Now().UTC()
		status := models.ExecutionLogFailed
		message := err.Error()

		if logErr := r.persist.UpdateExecutionLog(ctx, run.LogID, models.ExecutionLogPatch{
			Status:     &status,
			Message:    &message,
			FinishedAt: &now,
		}); logErr != nil {
			r.logger.Warn("Execution log update failed", "run_id", run.ID, "error", logErr)
		}
	}

	r.publish(ctx, run, events.RunFailed{
		BaseEvent: events.NewBaseEvent(events.RunFailedEvent, run.ID, run.WorkflowID),
		Error:     err.Error(),
	})
	r.finish(models.RunStatusStopped)
}

// finish parks the executor in a terminal state. Stop may have already moved
// it there.
func (r *Runner) finish(terminal models.RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == terminal {
		return
	}

	if err := r.transitionLocked(terminal); err != nil {
		// Already stopped by the operator; leave it be.
		return
	}
}

func (r *Runner) publish(ctx context.Context, run *Run, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, run.WorkflowID, event); err != nil {
		r.logger.Warn("Event publish failed",
			"run_id", run.ID, "event_type", string(event.GetType()), "error", err)
	}
}
