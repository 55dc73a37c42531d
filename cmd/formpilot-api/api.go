// Package main provides the FormPilot API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/mfigueira/formpilot/pkg/persistence"
	"github.com/mfigueira/formpilot/pkg/runner"
	"github.com/mfigueira/formpilot/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	runner      *runner.Runner
}

func NewAPI(logger *slog.Logger, persist persistence.Persistence, run *runner.Runner) *API {
	return &API{
		logger:      logger,
		persistence: persist,
		runner:      run,
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FormPilot API")
	})

	web.NewAPIHandlers(a.persistence, a.runner, a.logger).RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
