package dto

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
)

// TextCleaner strips markup from user-provided text.
type TextCleaner interface {
	Text(string) string
	List([]string) []string
}

// UpdatableFields lists the content fields an applicant may change while the
// application is pending.
var UpdatableFields = []string{"motivation", "experience", "goals", "technicalSkills", "projects"}

type AvailabilityRequest struct {
	StartDate      string `json:"startDate" validate:"required,isodate,startdate"`
	TimeCommitment string `json:"timeCommitment" validate:"required,commitment"`
}

type SkillRequest struct {
	Skill string `json:"skill" validate:"required,min=2,max=50"`
	Level string `json:"level" validate:"required,skilllevel"`
}

type ProjectRequest struct {
	Name         string   `json:"name" validate:"required,min=2,max=100"`
	Description  string   `json:"description" validate:"required,min=10,max=500"`
	Technologies []string `json:"technologies" validate:"omitempty,max=20,dive,max=50"`
	URL          string   `json:"url" validate:"omitempty,url"`
	GithubURL    string   `json:"githubUrl" validate:"omitempty,url,github"`
}

type CreateApplicationRequest struct {
	Program         string              `json:"program" validate:"required,program"`
	Motivation      string              `json:"motivation" validate:"required,min=100,max=2000,plaintext"`
	Experience      string              `json:"experience" validate:"required,min=50,max=1500"`
	Goals           string              `json:"goals" validate:"required,min=50,max=1000"`
	Availability    AvailabilityRequest `json:"availability"`
	TechnicalSkills []SkillRequest      `json:"technicalSkills" validate:"required,min=1,max=20,dive"`
	Projects        []ProjectRequest    `json:"projects" validate:"omitempty,max=10,dive"`
}

func (r *CreateApplicationRequest) Normalize(clean TextCleaner) {
	r.Program = strings.TrimSpace(r.Program)
	r.Motivation = clean.Text(r.Motivation)
	r.Experience = clean.Text(r.Experience)
	r.Goals = clean.Text(r.Goals)
	r.Availability.StartDate = strings.TrimSpace(r.Availability.StartDate)
	normalizeSkills(r.TechnicalSkills, clean)
	normalizeProjects(r.Projects, clean)
}

// UpdateApplicationRequest carries only the whitelisted content fields; nil
// means "not provided".
type UpdateApplicationRequest struct {
	Motivation      *string          `json:"motivation" validate:"omitempty,min=100,max=2000,plaintext"`
	Experience      *string          `json:"experience" validate:"omitempty,min=50,max=1500"`
	Goals           *string          `json:"goals" validate:"omitempty,min=50,max=1000"`
	TechnicalSkills []SkillRequest   `json:"technicalSkills" validate:"omitempty,min=1,max=20,dive"`
	Projects        []ProjectRequest `json:"projects" validate:"omitempty,max=10,dive"`
}

func (r *UpdateApplicationRequest) Normalize(clean TextCleaner) {
	for _, field := range []*string{r.Motivation, r.Experience, r.Goals} {
		if field != nil {
			*field = clean.Text(*field)
		}
	}
	normalizeSkills(r.TechnicalSkills, clean)
	normalizeProjects(r.Projects, clean)
}

func (r *UpdateApplicationRequest) Empty() bool {
	return r.Motivation == nil && r.Experience == nil && r.Goals == nil &&
		r.TechnicalSkills == nil && r.Projects == nil
}

func normalizeSkills(skills []SkillRequest, clean TextCleaner) {
	for i := range skills {
		skills[i].Skill = clean.Text(skills[i].Skill)
	}
}

func normalizeProjects(projects []ProjectRequest, clean TextCleaner) {
	for i := range projects {
		p := &projects[i]
		p.Name = clean.Text(p.Name)
		p.Description = clean.Text(p.Description)
		p.Technologies = clean.List(p.Technologies)
		p.URL = strings.TrimSpace(p.URL)
		p.GithubURL = strings.TrimSpace(p.GithubURL)
	}
}

// ListApplicationsQuery is parsed from the query string of list endpoints.
type ListApplicationsQuery struct {
	Page    int    `query:"page" json:"page" validate:"min=1,max=1000"`
	Limit   int    `query:"limit" json:"limit" validate:"min=1,max=100"`
	Sort    string `query:"sort" json:"sort" validate:"omitempty,sortfield"`
	Status  string `query:"status" json:"status" validate:"omitempty,appstatus"`
	Program string `query:"program" json:"program" validate:"omitempty,program"`
	UserID  string `query:"userId" json:"userId"`
}

func DefaultListQuery() ListApplicationsQuery {
	return ListApplicationsQuery{Page: 1, Limit: 10, Sort: "-submissionDate"}
}

type StatusUpdateRequest struct {
	Status        string  `json:"status" validate:"required,appstatus"`
	ReviewNotes   *string `json:"reviewNotes" validate:"omitempty,max=1000"`
	InterviewDate string  `json:"interviewDate" validate:"omitempty,isodate"`
}

func (r *StatusUpdateRequest) Normalize(clean TextCleaner) {
	r.Status = strings.TrimSpace(r.Status)
	if r.ReviewNotes != nil {
		notes := clean.Text(*r.ReviewNotes)
		r.ReviewNotes = &notes
	}
	r.InterviewDate = strings.TrimSpace(r.InterviewDate)
}

type AnalyticsResponse struct {
	DaysSubmitted int       `json:"daysSubmitted"`
	LastUpdated   time.Time `json:"lastUpdated"`
	CanEdit       bool      `json:"canEdit"`
	CanWithdraw   bool      `json:"canWithdraw"`
}

type ApplicationResponse struct {
	ID              string                     `json:"id"`
	UserID          string                     `json:"userId"`
	Program         string                     `json:"program"`
	Motivation      string                     `json:"motivation"`
	Experience      string                     `json:"experience"`
	Goals           string                     `json:"goals"`
	Availability    models.Availability        `json:"availability"`
	TechnicalSkills []models.Skill             `json:"technicalSkills"`
	Projects        []models.Project           `json:"projects"`
	Status          string                     `json:"status"`
	ReferenceNumber string                     `json:"referenceNumber"`
	ReviewNotes     string                     `json:"reviewNotes,omitempty"`
	InterviewDate   *time.Time                 `json:"interviewDate,omitempty"`
	SubmissionDate  time.Time                  `json:"submissionDate"`
	LastUpdated     time.Time                  `json:"lastUpdated"`
	Metadata        *models.SubmissionMetadata `json:"metadata,omitempty"`
	Analytics       *AnalyticsResponse         `json:"analytics,omitempty"`
}

func NewApplicationResponse(a *models.Application) ApplicationResponse {
	skills := a.TechnicalSkills
	if skills == nil {
		skills = []models.Skill{}
	}
	projects := a.Projects
	if projects == nil {
		projects = []models.Project{}
	}
	return ApplicationResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Program:         a.Program,
		Motivation:      a.Motivation,
		Experience:      a.Experience,
		Goals:           a.Goals,
		Availability:    a.Availability,
		TechnicalSkills: skills,
		Projects:        projects,
		Status:          a.Status,
		ReferenceNumber: a.ReferenceNumber,
		ReviewNotes:     a.ReviewNotes,
		InterviewDate:   a.InterviewDate,
		SubmissionDate:  a.SubmissionDate,
		LastUpdated:     a.LastUpdated,
	}
}

// NewApplicationDetail adds the analytics block shown on the detail view.
func NewApplicationDetail(a *models.Application, now time.Time) ApplicationResponse {
	resp := NewApplicationResponse(a)
	lastUpdated := a.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = a.SubmissionDate
	}
	resp.Analytics = &AnalyticsResponse{
		DaysSubmitted: int(now.Sub(a.SubmissionDate) / (24 * time.Hour)),
		LastUpdated:   lastUpdated,
		CanEdit:       a.CanEdit(),
		CanWithdraw:   a.CanWithdraw(),
	}
	return resp
}

// NewApplicationReview is the detail view plus the submission metadata
// (client IP and user agent), shown to reviewers only.
func NewApplicationReview(a *models.Application, now time.Time) ApplicationResponse {
	resp := NewApplicationDetail(a, now)
	meta := a.Metadata
	resp.Metadata = &meta
	return resp
}

func NewApplicationResponses(apps []models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationResponse(&apps[i]))
	}
	return out
}

type ApplicationData struct {
	Application ApplicationResponse `json:"application"`
}

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

type ListFilters struct {
	Status  string `json:"status,omitempty"`
	Program string `json:"program,omitempty"`
	Sort    string `json:"sort"`
}

type ApplicationListData struct {
	Applications []ApplicationResponse `json:"applications"`
	Pagination   Pagination            `json:"pagination"`
	Filters      ListFilters           `json:"filters"`
}

type WithdrawnApplication struct {
	ID              string    `json:"id"`
	Program         string    `json:"program"`
	ReferenceNumber string    `json:"referenceNumber"`
	WithdrawnAt     time.Time `json:"withdrawnAt"`
}

type WithdrawData struct {
	WithdrawnApplication WithdrawnApplication `json:"withdrawnApplication"`
}

type ExistingApplication struct {
	ID             string    `json:"id"`
	Program        string    `json:"program"`
	Status         string    `json:"status"`
	SubmissionDate time.Time `json:"submissionDate"`
}

type DuplicateApplicationData struct {
	ExistingApplication ExistingApplication `json:"existingApplication"`
}

type StatusConflictData struct {
	CurrentStatus   string   `json:"currentStatus"`
	AllowedStatuses []string `json:"allowedStatuses"`
}

type NoUpdateData struct {
	AllowedFields []string `json:"allowedFields"`
}

type ProgramResponse struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

type ProgramsData struct {
	Programs        []ProgramResponse `json:"programs"`
	TimeCommitments []string          `json:"timeCommitments"`
	SkillLevels     []string          `json:"skillLevels"`
	Statuses        []string          `json:"statuses"`
}
