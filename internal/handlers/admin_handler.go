package handlers

import (
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the review surface. Routes are expected behind
// Auth.Required and AdminRequired.
type AdminHandler struct {
	applications *ApplicationHandler
}

func NewAdminHandler(applications *ApplicationHandler) *AdminHandler {
	return &AdminHandler{applications: applications}
}

// ListApplications lists every user's applications; userId narrows it to
// one applicant.
func (h *AdminHandler) ListApplications(c *fiber.Ctx) error {
	q, err := h.applications.listQuery(c)
	if err != nil {
		return validationFailed(c, err)
	}

	data, err := h.applications.applications.List(c.UserContext(), "", q)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", data).WithMeta(h.applications.storage.Mode(), h.applications.now()))
}

func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if !validation.ValidID(id) {
		return fail(c, fiber.StatusBadRequest, dto.CodeInvalidID, "Invalid application ID format")
	}

	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Normalize(h.applications.sanitize)
	if err := h.applications.validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	app, err := h.applications.applications.UpdateStatus(c.UserContext(), id, &req)
	if err != nil {
		return applicationError(c, err)
	}

	metrics.RecordApplication(app.Status, app.Program)
	now := h.applications.now()
	return c.JSON(dto.OK("Application status updated successfully", dto.ApplicationData{
		Application: dto.NewApplicationReview(app, now),
	}).WithMeta(h.applications.storage.Mode(), now))
}
