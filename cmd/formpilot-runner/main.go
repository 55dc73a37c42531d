// Package main provides the FormPilot runner: it replays one workflow over
// one data source, either immediately or on a cron schedule.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/cmd"
	"github.com/mfigueira/formpilot/pkg/config"
	"github.com/mfigueira/formpilot/pkg/log"
	"github.com/mfigueira/formpilot/pkg/runner"
	"github.com/mfigueira/formpilot/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "formpilot-runner",
		Usage:                 "Replay a workflow over a data source",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "workflow-id",
				Aliases: []string{"w"},
				Usage:   "Workflow to replay",
				Sources: cli.EnvVars("WORKFLOW_ID"),
			},
			&cli.StringFlag{
				Name:    "data-source-id",
				Aliases: []string{"d"},
				Usage:   "Data source whose records are replayed",
				Sources: cli.EnvVars("DATA_SOURCE_ID"),
			},
			&cli.StringFlag{
				Name:    "import",
				Usage:   "Batch YAML file to seed the workflow, steps and data source from",
				Sources: cli.EnvVars("BATCH_FILE"),
			},
			&cli.StringFlag{
				Name:    "queue-url",
				Usage:   "Record queue URL (redis://...); defaults to the database",
				Sources: cli.EnvVars("QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression; when set, the run repeats on this schedule",
				Sources: cli.EnvVars("SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "headless",
				Usage:   "Run the browser headless",
				Value:   true,
				Sources: cli.EnvVars("BROWSER_HEADLESS"),
			},
			&cli.StringFlag{
				Name:    "chrome-path",
				Usage:   "Path to the Chrome binary",
				Sources: cli.EnvVars("CHROME_PATH"),
			},
			&cli.StringFlag{
				Name:    "cdp-url",
				Usage:   "Attach to a remote Chrome over CDP instead of launching one",
				Sources: cli.EnvVars("CDP_URL"),
			},
			&cli.StringFlag{
				Name:    "user-data-dir",
				Usage:   "Chrome profile directory, for reusing saved logins",
				Sources: cli.EnvVars("USER_DATA_DIR"),
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "Replay against the in-memory browser instead of Chrome",
				Sources: cli.EnvVars("DRY_RUN"),
			},
			&cli.DurationFlag{
				Name:    "login-wait",
				Usage:   "How long to wait for a manual login before failing",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("LOGIN_WAIT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("runner")

	logger.InfoContext(ctx, "Initializing FormPilot Runner")

	persistence := cmd.NewPersistence(command.String("database-url"))

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	queue, err := cmd.NewQueue(command.String("queue-url"), persistence)
	if err != nil {
		return err
	}

	eventBus := cmd.NewEventBus(command.String("event-bus"), "runner", logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	registry := cmd.NewRegistry(logger)

	driverFactory := cmd.NewDriverFactory(command.Bool("dry-run"), browser.Options{
		Headless:    command.Bool("headless"),
		ChromePath:  command.String("chrome-path"),
		CDPURL:      command.String("cdp-url"),
		UserDataDir: command.String("user-data-dir"),
	})

	engine := runner.NewRunner(persistence, queue, eventBus, registry, driverFactory, logger, runner.Config{
		LoginWait: command.Duration("login-wait"),
	})

	workflowID := command.String("workflow-id")
	dataSourceID := command.String("data-source-id")

	if batchFile := command.String("import"); batchFile != "" {
		batch, err := config.LoadBatch(batchFile)
		if err != nil {
			return err
		}

		if err := persistence.SaveWorkflow(ctx, batch.Workflow); err != nil {
			return err
		}

		for _, step := range batch.Steps {
			if err := persistence.SaveStep(ctx, step); err != nil {
				return err
			}
		}

		if err := persistence.SaveDataSource(ctx, batch.DataSource); err != nil {
			return err
		}

		logger.InfoContext(ctx, "Imported batch file",
			"workflow_id", batch.Workflow.ID,
			"steps", len(batch.Steps),
			"records", len(batch.DataSource.Records),
		)

		workflowID = batch.Workflow.ID
		dataSourceID = batch.DataSource.ID
	}

	if workflowID == "" || dataSourceID == "" {
		return errors.New("either --import or both --workflow-id and --data-source-id are required")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cronExpr := command.String("schedule"); cronExpr != "" {
		sched, err := scheduler.New(engine, workflowID, dataSourceID, cronExpr, logger)
		if err != nil {
			return err
		}

		if err := sched.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		sched.Stop()

		return nil
	}

	return engine.Start(ctx, workflowID, dataSourceID)
}
