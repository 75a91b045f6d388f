package web

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/flowforge/flowforge/pkg/blueprint"
	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/orchestrator"
	"github.com/flowforge/flowforge/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	monitor   *costs.Monitor
	blueprint *blueprint.Generator
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(monitor *costs.Monitor, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		monitor:   monitor,
		blueprint: blueprint.NewGenerator(logger),
		validator: validator.New(),
		logger:    logger.With("module", "web"),
	}
}

// RegisterRoutes mounts every ops endpoint on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/costs/summary", h.GetCostSummary)
	app.Get("/costs/recommendations", h.GetCostRecommendations)
	app.Post("/generate", h.Generate)
}

func (h *APIHandlers) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (h *APIHandlers) GetCostSummary(c fiber.Ctx) error {
	return c.JSON(h.monitor.GetSummary())
}

func (h *APIHandlers) GetCostRecommendations(c fiber.Ctx) error {
	recommendations := h.monitor.GetRecommendations()
	if recommendations == nil {
		recommendations = []costs.Recommendation{}
	}

	return c.JSON(fiber.Map{"recommendations": recommendations})
}

// Generate runs the deterministic blueprint strategy synchronously and
// returns the resulting workflow without persisting anything.
func (h *APIHandlers) Generate(c fiber.Ctx) error {
	var req GenerateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req.Job); err != nil {
		return badRequest(c, "Invalid job: "+err.Error())
	}

	plan := req.Plan
	if plan == nil {
		plan = orchestrator.FallbackPlan(&req.Job)
	} else if err := h.validator.Struct(plan); err != nil {
		return badRequest(c, "Invalid plan: "+err.Error())
	}

	graph, err := h.blueprint.Generate(c.Context(), plan, &req.Job)
	if err != nil {
		h.logger.Warn("Dry-run generation failed", "job_id", req.Job.ID, "error", err)

		return unprocessable(c, err.Error())
	}

	result := validation.Validate(graph)
	if !result.Valid {
		// The blueprint path should always produce a valid graph; anything
		// else is a server-side defect, not a client error.
		return internalError(c, &validationFailure{errors: result.Errors})
	}

	return c.JSON(GenerateResponse{Workflow: graph, Valid: true})
}

type validationFailure struct {
	errors []string
}

func (v *validationFailure) Error() string {
	if len(v.errors) == 0 {
		return "workflow failed validation"
	}

	return "workflow failed validation: " + v.errors[0]
}
