// Package scheduler starts a configured workflow run on a cron schedule.
// It is used by the runner binary for recurring batches, such as a nightly
// roster import.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/mfigueira/formpilot/pkg/runner"
)

// RunStarter is the slice of the runner the scheduler needs.
type RunStarter interface {
	StartAsync(ctx context.Context, workflowID, dataSourceID string) (string, error)
}

type Scheduler struct {
	starter      RunStarter
	workflowID   string
	dataSourceID string
	cronExpr     string
	cron         *cron.Cron
	logger       *slog.Logger
}

func New(starter RunStarter, workflowID, dataSourceID, cronExpr string, logger *slog.Logger) (*Scheduler, error) {
	if workflowID == "" || dataSourceID == "" {
		return nil, errors.New("scheduler requires a workflow and a data source")
	}

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	return &Scheduler{
		starter:      starter,
		workflowID:   workflowID,
		dataSourceID: dataSourceID,
		cronExpr:     cronExpr,
		logger: logger.With(
			"module", "scheduler",
			"cron", cronExpr,
			"workflow_id", workflowID,
		),
	}, nil
}

// Start registers the cron job and begins ticking. It returns immediately;
// use Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting run scheduler")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(s.cronExpr, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()

	return nil
}

// tick fires one scheduled run. A batch still in flight from the previous
// tick is not interrupted; the tick is skipped with a log instead.
func (s *Scheduler) tick(ctx context.Context) {
	runID, err := s.starter.StartAsync(ctx, s.workflowID, s.dataSourceID)
	if errors.Is(err, runner.ErrRunActive) {
		s.logger.Warn("Skipping scheduled run, previous run still active")

		return
	}

	if err != nil {
		s.logger.Error("Failed to start scheduled run", "error", err)

		return
	}

	s.logger.Info("Scheduled run started", "run_id", runID)
}

// Stop halts the cron ticker and waits for an in-flight tick callback.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.logger.Info("Run scheduler stopped")
}
