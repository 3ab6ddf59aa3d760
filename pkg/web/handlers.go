package web

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/persistence"
)

type APIHandlers struct {
	engine      *automation.Engine
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(engine *automation.Engine, p persistence.Persistence, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		engine:      engine,
		persistence: p,
		validator:   validator,
	}
}

// PostEvent accepts a stage event and runs the full automation set against
// it. The response is always a run summary unless a precondition fails before
// any automation work begins.
func (h *APIHandlers) PostEvent(c fiber.Ctx) error {
	var req StageEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	summary, err := h.engine.HandleEvent(c.Context(), req.ToEvent())
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	automations, err := h.persistence.Automations(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"total_count": len(automations),
	})
}

// GetEnrollments lists enrollments, optionally filtered by automation_id.
func (h *APIHandlers) GetEnrollments(c fiber.Ctx) error {
	enrollments, err := h.persistence.EnrollmentsByAutomation(c.Context(), c.Query("automation_id"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"enrollments": enrollments,
		"total_count": len(enrollments),
	})
}

// GetEnrollment returns a single enrollment with its ordered steps.
func (h *APIHandlers) GetEnrollment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Enrollment ID is required")
	}

	enrollment, err := h.persistence.EnrollmentByID(c.Context(), id)
	if err != nil {
		if persistence.IsNotFound(err) {
			return notFound(c, "Enrollment not found")
		}

		return internalError(c, err)
	}

	steps, err := h.persistence.StepsByEnrollment(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(EnrollmentResponse{
		Enrollment: enrollment,
		Steps:      steps,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Praxisflow API is healthy"
	httpStatus := fiber.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "Praxisflow API is unhealthy"
		httpStatus = fiber.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// RegisterRoutes wires the handlers onto a fiber app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Post("/events", h.PostEvent)
	app.Get("/automations", h.GetAutomations)
	app.Get("/enrollments", h.GetEnrollments)
	app.Get("/enrollments/:id", h.GetEnrollment)
	app.Get("/health", h.HealthCheck)
}
