package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
)

const referenceAttempts = 5

// Requester identifies who is acting on an application. Admins may act on
// any application; everyone else only on their own.
type Requester struct {
	UserID string
	Admin  bool
}

func (r Requester) owns(a *models.Application) bool {
	return r.Admin || a.UserID == r.UserID
}

type ApplicationService struct {
	store       storage.Store
	submissions *ratelimit.SlidingWindow
	now         func() time.Time
}

// NewApplicationService rate-limits new applications per user through
// submissions. now may be nil.
func NewApplicationService(store storage.Store, submissions *ratelimit.SlidingWindow, now func() time.Time) *ApplicationService {
	if now == nil {
		now = time.Now
	}
	return &ApplicationService{store: store, submissions: submissions, now: now}
}

func (s *ApplicationService) Create(ctx context.Context, userID string, req *dto.CreateApplicationRequest, client ClientInfo) (*models.Application, error) {
	const op = "services.ApplicationService.Create"

	if s.submissions != nil {
		if decision := s.submissions.Allow(userID); !decision.Allowed {
			return nil, &RateLimitedError{RetryAfter: decision.Reset.Sub(s.now())}
		}
	}

	existing, err := s.store.FindApplicationByUserAndProgram(ctx, userID, req.Program)
	if err == nil {
		return nil, &DuplicateApplicationError{Existing: existing}
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: find existing: %w", op, err)
	}

	startDate, err := validation.ParseDate(req.Availability.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: parse start date: %w", op, err)
	}

	now := s.now()
	app := &models.Application{
		UserID:     userID,
		Program:    req.Program,
		Motivation: req.Motivation,
		Experience: req.Experience,
		Goals:      req.Goals,
		Availability: models.Availability{
			StartDate:      startDate,
			TimeCommitment: req.Availability.TimeCommitment,
		},
		TechnicalSkills: toSkills(req.TechnicalSkills, now),
		Projects:        toProjects(req.Projects, now),
		Status:          models.StatusPending,
		Metadata: models.SubmissionMetadata{
			UserAgent:        client.UserAgent,
			IPAddress:        client.IP,
			SubmissionSource: models.SubmissionSourceWeb,
		},
		SubmissionDate: now,
		LastUpdated:    now,
	}

	// A duplicate on insert is either a reference collision (retry with a
	// new number) or a concurrent submission for the same program.
	for attempt := 0; ; attempt++ {
		ref, err := NewReferenceNumber(now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ID = ""
		app.ReferenceNumber = ref

		err = s.store.CreateApplication(ctx, app)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%s: create: %w", op, err)
		}
		if existing, findErr := s.store.FindApplicationByUserAndProgram(ctx, userID, req.Program); findErr == nil {
			return nil, &DuplicateApplicationError{Existing: existing}
		}
		if attempt+1 >= referenceAttempts {
			return nil, fmt.Errorf("%s: reference number collisions: %w", op, err)
		}
	}

	slog.Info("application submitted", "op", op, "user_id", userID, "application_id", app.ID, "program", app.Program)
	return app, nil
}

// List returns one page of applications. An empty userID lists every user's
// applications and honours q.UserID as a filter.
func (s *ApplicationService) List(ctx context.Context, userID string, q dto.ListApplicationsQuery) (*dto.ApplicationListData, error) {
	const op = "services.ApplicationService.List"

	owner := userID
	if owner == "" {
		owner = q.UserID
	}
	apps, err := s.store.ListApplications(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	filtered := apps[:0]
	for _, a := range apps {
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.Program != "" && a.Program != q.Program {
			continue
		}
		filtered = append(filtered, a)
	}

	defaults := dto.DefaultListQuery()
	if q.Sort == "" {
		q.Sort = defaults.Sort
	}
	if q.Page < 1 {
		q.Page = defaults.Page
	}
	if q.Limit < 1 {
		q.Limit = defaults.Limit
	}
	sortApplications(filtered, q.Sort)

	total := len(filtered)
	start := min((q.Page-1)*q.Limit, total)
	end := min(start+q.Limit, total)
	totalPages := (total + q.Limit - 1) / q.Limit

	return &dto.ApplicationListData{
		Applications: dto.NewApplicationResponses(filtered[start:end]),
		Pagination: dto.Pagination{
			CurrentPage:  q.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: q.Limit,
			HasNextPage:  q.Page*q.Limit < total,
			HasPrevPage:  q.Page > 1,
		},
		Filters: dto.ListFilters{Status: q.Status, Program: q.Program, Sort: q.Sort},
	}, nil
}

// sortApplications orders by field, descending when prefixed with "-".
func sortApplications(apps []models.Application, order string) {
	desc := strings.HasPrefix(order, "-")
	field := strings.TrimPrefix(order, "-")

	compare := func(a, b *models.Application) int {
		switch field {
		case "lastUpdated":
			return a.LastUpdated.Compare(b.LastUpdated)
		case "program":
			return strings.Compare(a.Program, b.Program)
		case "status":
			return strings.Compare(a.Status, b.Status)
		default:
			return a.SubmissionDate.Compare(b.SubmissionDate)
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		c := compare(&apps[i], &apps[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Get hides applications the requester does not own behind
// ErrApplicationNotFound.
func (s *ApplicationService) Get(ctx context.Context, id string, who Requester) (*models.Application, error) {
	app, err := s.store.FindApplicationByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("services.ApplicationService.Get: %w", err)
	}
	if !who.owns(app) {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *ApplicationService) Update(ctx context.Context, id string, who Requester, req *dto.UpdateApplicationRequest) (*models.Application, error) {
	const op = "services.ApplicationService.Update"

	app, err := s.Get(ctx, id, who)
	if err != nil {
		return nil, err
	}
	if !app.CanEdit() {
		return nil, &StatusConflictError{Err: ErrNotEditable, Current: app.Status, Allowed: models.EditableStatuses}
	}
	if req.Empty() {
		return nil, ErrNoUpdateData
	}

	now := s.now()
	if req.Motivation != nil {
		app.Motivation = *req.Motivation
	}
	if req.Experience != nil {
		app.Experience = *req.Experience
	}
	if req.Goals != nil {
		app.Goals = *req.Goals
	}
	if req.TechnicalSkills != nil {
		app.TechnicalSkills = toSkills(req.TechnicalSkills, now)
	}
	if req.Projects != nil {
		app.Projects = toProjects(req.Projects, now)
	}
	app.LastUpdated = now

	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("application updated", "op", op, "user_id", who.UserID, "application_id", app.ID)
	return app, nil
}

// Withdraw deletes the application while it is still pending or under
// review.
func (s *ApplicationService) Withdraw(ctx context.Context, id string, who Requester) (*dto.WithdrawnApplication, error) {
	const op = "services.ApplicationService.Withdraw"

	app, err := s.Get(ctx, id, who)
	if err != nil {
		return nil, err
	}
	if !app.CanWithdraw() {
		return nil, &StatusConflictError{Err: ErrNotWithdrawable, Current: app.Status, Allowed: models.WithdrawableStatuses}
	}

	if err := s.store.DeleteApplication(ctx, app.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("application withdrawn", "op", op, "user_id", who.UserID, "application_id", app.ID)
	return &dto.WithdrawnApplication{
		ID:              app.ID,
		Program:         app.Program,
		ReferenceNumber: app.ReferenceNumber,
		WithdrawnAt:     s.now(),
	}, nil
}

// UpdateStatus moves an application along its review lifecycle.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, req *dto.StatusUpdateRequest) (*models.Application, error) {
	const op = "services.ApplicationService.UpdateStatus"

	app, err := s.Get(ctx, id, Requester{Admin: true})
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(app.Status, req.Status) {
		return nil, &StatusConflictError{
			Err:     ErrInvalidTransition,
			Current: app.Status,
			Allowed: models.NextStatuses(app.Status),
		}
	}

	if req.InterviewDate != "" {
		date, err := validation.ParseDate(req.InterviewDate)
		if err != nil {
			return nil, validation.Errors{{Field: "interviewDate", Message: "Interview date must be a valid ISO 8601 date"}}
		}
		app.InterviewDate = &date
	} else if req.Status == models.StatusInterviewScheduled {
		return nil, validation.Errors{{Field: "interviewDate", Message: "Interview date is required when scheduling an interview"}}
	}
	if req.ReviewNotes != nil {
		app.ReviewNotes = *req.ReviewNotes
	}

	previous := app.Status
	app.Status = req.Status
	app.LastUpdated = s.now()
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("application status changed", "op", op, "application_id", app.ID, "from", previous, "to", app.Status)
	return app, nil
}

// Programs lists the catalogue; with a userID it marks programs the user
// already applied to.
func (s *ApplicationService) Programs(ctx context.Context, userID string) (*dto.ProgramsData, error) {
	applied := make(map[string]bool)
	if userID != "" {
		apps, err := s.store.ListApplications(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("services.ApplicationService.Programs: %w", err)
		}
		for _, a := range apps {
			applied[a.Program] = true
		}
	}

	programs := make([]dto.ProgramResponse, 0, len(models.Programs))
	for _, p := range models.Programs {
		programs = append(programs, dto.ProgramResponse{Name: p, Applied: applied[p]})
	}
	return &dto.ProgramsData{
		Programs:        programs,
		TimeCommitments: models.TimeCommitments,
		SkillLevels:     models.SkillLevels,
		Statuses:        models.Statuses,
	}, nil
}

func toSkills(in []dto.SkillRequest, now time.Time) []models.Skill {
	out := make([]models.Skill, 0, len(in))
	for _, sk := range in {
		out = append(out, models.Skill{Skill: sk.Skill, Level: sk.Level, AddedAt: now})
	}
	return out
}

func toProjects(in []dto.ProjectRequest, now time.Time) []models.Project {
	out := make([]models.Project, 0, len(in))
	for _, p := range in {
		techs := p.Technologies
		if techs == nil {
			techs = []string{}
		}
		out = append(out, models.Project{
			Name:         p.Name,
			Description:  p.Description,
			Technologies: techs,
			URL:          p.URL,
			GithubURL:    p.GithubURL,
			AddedAt:      now,
		})
	}
	return out
}
