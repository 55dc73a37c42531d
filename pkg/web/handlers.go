// Package web provides the HTTP run-control surface: workflow inspection,
// run start/pause/resume/stop/continue, and health.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
	"github.com/mfigueira/formpilot/pkg/resolver"
	"github.com/mfigueira/formpilot/pkg/runner"
)

type APIHandlers struct {
	persist  persistence.Persistence
	runner   *runner.Runner
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPIHandlers(persist persistence.Persistence, run *runner.Runner, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		persist:  persist,
		runner:   run,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// RegisterRoutes mounts every endpoint on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	w := app.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Get("/:id/steps", h.GetWorkflowSteps)
	w.Post("/:id/steps", h.CreateWorkflowStep)

	r := app.Group("/runs")
	r.Post("/", h.StartRun)
	r.Get("/current", h.CurrentRun)
	r.Post("/current/pause", h.PauseRun)
	r.Post("/current/resume", h.ResumeRun)
	r.Post("/current/stop", h.StopRun)
	r.Post("/current/continue", h.ContinueRun)

	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persist.Workflows(c.Context())
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.persist.WorkflowByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var workflow models.Workflow
	if err := c.Bind().Body(&workflow); err != nil {
		return badRequest(c, "invalid workflow payload: "+err.Error())
	}

	if err := h.validate.Struct(&workflow); err != nil {
		return badRequest(c, err.Error())
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := h.persist.SaveWorkflow(c.Context(), &workflow); err != nil {
		return handleStoreError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GetWorkflowSteps(c fiber.Ctx) error {
	workflowID := c.Params("id")

	if _, err := h.persist.WorkflowByID(c.Context(), workflowID); err != nil {
		return handleStoreError(c, err)
	}

	steps, err := h.persist.StepsByWorkflow(c.Context(), workflowID)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(fiber.Map{"steps": steps})
}

func (h *APIHandlers) CreateWorkflowStep(c fiber.Ctx) error {
	workflowID := c.Params("id")

	if _, err := h.persist.WorkflowByID(c.Context(), workflowID); err != nil {
		return handleStoreError(c, err)
	}

	var step models.Step
	if err := c.Bind().Body(&step); err != nil {
		return badRequest(c, "invalid step payload: "+err.Error())
	}

	step.WorkflowID = workflowID

	if !step.ActionType.Valid() {
		return badRequest(c, "unknown action_type: "+string(step.ActionType))
	}

	if step.ActionType.NeedsElement() {
		selector, err := step.ParseSelector()
		if err != nil || selector.IsEmpty() {
			return badRequest(c, string(step.ActionType)+" steps require a selector")
		}

		// Recorded selectors carry ephemeral markup; only the durable subset
		// is persisted.
		optimized, err := json.Marshal(resolver.Optimize(selector))
		if err != nil {
			return internalError(c, err)
		}

		step.Selector = optimized
	}

	if step.ID == "" {
		step.ID = uuid.New().String()
	}

	if err := h.validate.Struct(&step); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persist.SaveStep(c.Context(), &step); err != nil {
		return handleStoreError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

type startRunRequest struct {
	WorkflowID   string `json:"workflow_id"   validate:"required"`
	DataSourceID string `json:"data_source_id" validate:"required"`
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	var req startRunRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid run request: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	// Fail on a missing workflow or data source here, while the response can
	// still say so.
	if _, err := h.persist.WorkflowByID(c.Context(), req.WorkflowID); err != nil {
		return handleStoreError(c, err)
	}

	if _, err := h.persist.DataSourceByID(c.Context(), req.DataSourceID); err != nil {
		return handleStoreError(c, err)
	}

	// The run outlives this request.
	runID, err := h.runner.StartAsync(context.WithoutCancel(c.Context()), req.WorkflowID, req.DataSourceID)
	if errors.Is(err, runner.ErrRunActive) {
		return conflict(c, "a run is already active")
	}

	if err != nil {
		return internalError(c, err)
	}

	h.logger.Info("Run started via API", "run_id", runID, "workflow_id", req.WorkflowID)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"run_id": runID})
}

func (h *APIHandlers) CurrentRun(c fiber.Ctx) error {
	run := h.runner.CurrentRun()
	if run == nil {
		return notFound(c, "no run has been started")
	}

	return c.JSON(run)
}

func (h *APIHandlers) PauseRun(c fiber.Ctx) error {
	if err := h.runner.Pause(); err != nil {
		return conflict(c, err.Error())
	}

	return h.runStatus(c)
}

func (h *APIHandlers) ResumeRun(c fiber.Ctx) error {
	if err := h.runner.Resume(); err != nil {
		return conflict(c, err.Error())
	}

	return h.runStatus(c)
}

func (h *APIHandlers) StopRun(c fiber.Ctx) error {
	if err := h.runner.Stop(); err != nil {
		return conflict(c, err.Error())
	}

	return h.runStatus(c)
}

func (h *APIHandlers) ContinueRun(c fiber.Ctx) error {
	if err := h.runner.Continue(); err != nil {
		return conflict(c, err.Error())
	}

	return h.runStatus(c)
}

func (h *APIHandlers) runStatus(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": h.runner.Status()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persist.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}
