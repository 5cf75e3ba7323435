package handlers

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type ApplicationHandler struct {
	applications *services.ApplicationService
	validate     *validation.Validator
	sanitize     dto.TextCleaner
	storage      StorageStatus
	now          func() time.Time
}

func NewApplicationHandler(applications *services.ApplicationService, validate *validation.Validator, sanitize dto.TextCleaner, storage StorageStatus, now func() time.Time) *ApplicationHandler {
	if now == nil {
		now = time.Now
	}
	return &ApplicationHandler{
		applications: applications,
		validate:     validate,
		sanitize:     sanitize,
		storage:      storage,
		now:          now,
	}
}

func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var req dto.CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Normalize(h.sanitize)
	if err := h.validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	app, err := h.applications.Create(c.UserContext(), id.UserID, &req, clientInfo(c))
	if err != nil {
		var limited *services.RateLimitedError
		if errors.As(err, &limited) {
			return tooMany(c, "Too many applications submitted. Please try again later.", limited.RetryAfter)
		}
		return applicationError(c, err)
	}

	metrics.RecordApplication("submitted", app.Program)
	return c.Status(fiber.StatusCreated).JSON(
		dto.OK("Application submitted successfully", dto.ApplicationData{
			Application: dto.NewApplicationResponse(app),
		}).WithMeta(h.storage.Mode(), h.now()))
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	q, err := h.listQuery(c)
	if err != nil {
		return validationFailed(c, err)
	}
	// only admins may filter by owner, and only through the admin route
	q.UserID = ""

	data, err := h.applications.List(c.UserContext(), id.UserID, q)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", data).WithMeta(h.storage.Mode(), h.now()))
}

func (h *ApplicationHandler) listQuery(c *fiber.Ctx) (dto.ListApplicationsQuery, error) {
	q := dto.DefaultListQuery()
	if err := c.QueryParser(&q); err != nil {
		return q, validation.Errors{{Field: "query", Message: "Query parameters are malformed"}}
	}
	return q, h.validate.Struct(&q)
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	who, resourceID, err := requester(c)
	if err != nil {
		return err
	}

	app, err := h.applications.Get(c.UserContext(), resourceID, who)
	if err != nil {
		return applicationError(c, err)
	}
	now := h.now()
	view := dto.NewApplicationDetail(app, now)
	if who.Admin {
		view = dto.NewApplicationReview(app, now)
	}
	return c.JSON(dto.OK("", dto.ApplicationData{Application: view}).WithMeta(h.storage.Mode(), now))
}

func (h *ApplicationHandler) Update(c *fiber.Ctx) error {
	who, resourceID, err := requester(c)
	if err != nil {
		return err
	}

	var req dto.UpdateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Normalize(h.sanitize)
	if err := h.validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	app, err := h.applications.Update(c.UserContext(), resourceID, who, &req)
	if err != nil {
		return applicationError(c, err)
	}

	metrics.RecordApplication("updated", app.Program)
	return c.JSON(dto.OK("Application updated successfully", dto.ApplicationData{
		Application: dto.NewApplicationResponse(app),
	}).WithMeta(h.storage.Mode(), h.now()))
}

func (h *ApplicationHandler) Delete(c *fiber.Ctx) error {
	who, resourceID, err := requester(c)
	if err != nil {
		return err
	}

	withdrawn, err := h.applications.Withdraw(c.UserContext(), resourceID, who)
	if err != nil {
		return applicationError(c, err)
	}

	metrics.RecordApplication("withdrawn", withdrawn.Program)
	return c.JSON(dto.OK("Application withdrawn successfully", dto.WithdrawData{
		WithdrawnApplication: *withdrawn,
	}).WithMeta(h.storage.Mode(), h.now()))
}

// Programs is public; a signed-in caller also sees which programs they
// already applied to.
func (h *ApplicationHandler) Programs(c *fiber.Ctx) error {
	var userID string
	if id, ok := middleware.CurrentIdentity(c); ok {
		userID = id.UserID
	}

	data, err := h.applications.Programs(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", data))
}

func requester(c *fiber.Ctx) (services.Requester, string, error) {
	check, ok := middleware.CurrentOwnership(c)
	if !ok {
		return services.Requester{}, "", fiber.NewError(fiber.StatusUnauthorized, "Access denied. Authentication required.")
	}
	return services.Requester{UserID: check.UserID, Admin: check.Admin}, check.ResourceID, nil
}

// applicationError maps application service errors onto the response
// taxonomy and hands anything unknown to the error handler.
func applicationError(c *fiber.Ctx, err error) error {
	var (
		duplicate *services.DuplicateApplicationError
		conflict  *services.StatusConflictError
		verrs     validation.Errors
	)
	switch {
	case errors.As(err, &verrs):
		return validationFailed(c, err)
	case errors.Is(err, services.ErrApplicationNotFound):
		return fail(c, fiber.StatusNotFound, dto.CodeApplicationNotFound, "Application not found")
	case errors.As(err, &duplicate):
		existing := duplicate.Existing
		resp := dto.NewError(dto.CodeDuplicateApplication, "You have already submitted an application for this program")
		resp.Data = dto.DuplicateApplicationData{ExistingApplication: dto.ExistingApplication{
			ID:             existing.ID,
			Program:        existing.Program,
			Status:         existing.Status,
			SubmissionDate: existing.SubmissionDate,
		}}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.Is(err, services.ErrNoUpdateData):
		resp := dto.NewError(dto.CodeNoUpdateData, "No valid fields to update")
		resp.Data = dto.NoUpdateData{AllowedFields: dto.UpdatableFields}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.As(err, &conflict):
		code, message := conflictCode(conflict.Err)
		resp := dto.NewError(code, message)
		resp.Data = dto.StatusConflictData{CurrentStatus: conflict.Current, AllowedStatuses: conflict.Allowed}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return err
}

func conflictCode(err error) (string, string) {
	switch {
	case errors.Is(err, services.ErrNotEditable):
		return dto.CodeApplicationNotEditable, "Cannot update application that is no longer pending"
	case errors.Is(err, services.ErrNotWithdrawable):
		return dto.CodeApplicationNotWithdrawable, "Cannot withdraw application with current status"
	default:
		return dto.CodeInvalidStatusTransition, "Status transition not allowed"
	}
}
