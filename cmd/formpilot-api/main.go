package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/cmd"
	"github.com/mfigueira/formpilot/pkg/log"
	"github.com/mfigueira/formpilot/pkg/runner"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "formpilot-api",
		Usage:                 "Manage workflows and control runs over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
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
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "Replay against the in-memory browser instead of Chrome",
				Sources: cli.EnvVars("DRY_RUN"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing FormPilot API")

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

			eventBus := cmd.NewEventBus(command.String("event-bus"), "api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger)

			driverFactory := cmd.NewDriverFactory(command.Bool("dry-run"), browser.Options{
				Headless:   command.Bool("headless"),
				ChromePath: command.String("chrome-path"),
				CDPURL:     command.String("cdp-url"),
			})

			run := runner.NewRunner(persistence, queue, eventBus, registry, driverFactory, logger, runner.Config{})

			api := NewAPI(logger, persistence, run)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
