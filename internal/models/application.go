package models

import (
	"time"
)

const (
	StatusPending            = "pending"
	StatusUnderReview        = "under_review"
	StatusInterviewScheduled = "interview_scheduled"
	StatusAccepted           = "accepted"
	StatusRejected           = "rejected"
	StatusWaitlisted         = "waitlisted"
)

const SubmissionSourceWeb = "web"

var (
	EditableStatuses     = []string{StatusPending}
	WithdrawableStatuses = []string{StatusPending, StatusUnderReview}

	// Statuses lists every lifecycle state in order.
	Statuses = []string{
		StatusPending,
		StatusUnderReview,
		StatusInterviewScheduled,
		StatusAccepted,
		StatusRejected,
		StatusWaitlisted,
	}
)

// transitions maps a status to the statuses a reviewer may move it to.
// accepted and rejected are terminal.
var transitions = map[string][]string{
	StatusPending:            {StatusUnderReview, StatusRejected, StatusWaitlisted},
	StatusUnderReview:        {StatusInterviewScheduled, StatusRejected, StatusWaitlisted},
	StatusInterviewScheduled: {StatusAccepted, StatusRejected, StatusWaitlisted},
	StatusWaitlisted:         {StatusUnderReview, StatusAccepted, StatusRejected},
}

type Availability struct {
	StartDate      time.Time `bson:"startDate" json:"startDate"`
	TimeCommitment string    `gorm:"size:50" bson:"timeCommitment" json:"timeCommitment"`
}

type Skill struct {
	Skill   string    `bson:"skill" json:"skill"`
	Level   string    `bson:"level" json:"level"`
	AddedAt time.Time `bson:"addedAt" json:"addedAt"`
}

type Project struct {
	Name         string    `bson:"name" json:"name"`
	Description  string    `bson:"description" json:"description"`
	Technologies []string  `bson:"technologies" json:"technologies"`
	URL          string    `bson:"url,omitempty" json:"url,omitempty"`
	GithubURL    string    `bson:"githubUrl,omitempty" json:"githubUrl,omitempty"`
	AddedAt      time.Time `bson:"addedAt" json:"addedAt"`
}

type SubmissionMetadata struct {
	UserAgent        string `gorm:"size:512" bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	IPAddress        string `gorm:"size:64" bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	SubmissionSource string `gorm:"size:20" bson:"submissionSource" json:"submissionSource"`
}

// Application is one user's submission for one program. (UserID, Program)
// and ReferenceNumber are unique in every backend.
type Application struct {
	ID              string             `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID          string             `gorm:"size:36;not null;uniqueIndex:idx_applications_user_program" bson:"userId" json:"userId"`
	Program         string             `gorm:"size:100;not null;uniqueIndex:idx_applications_user_program" bson:"program" json:"program"`
	Motivation      string             `gorm:"type:text" bson:"motivation" json:"motivation"`
	Experience      string             `gorm:"type:text" bson:"experience" json:"experience"`
	Goals           string             `gorm:"type:text" bson:"goals" json:"goals"`
	Availability    Availability       `gorm:"embedded;embeddedPrefix:availability_" bson:"availability" json:"availability"`
	TechnicalSkills []Skill            `gorm:"serializer:json" bson:"technicalSkills" json:"technicalSkills"`
	Projects        []Project          `gorm:"serializer:json" bson:"projects" json:"projects"`
	Status          string             `gorm:"size:30;not null;index" bson:"status" json:"status"`
	ReferenceNumber string             `gorm:"size:20;not null;uniqueIndex" bson:"referenceNumber" json:"referenceNumber"`
	ReviewNotes     string             `gorm:"size:1000" bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	InterviewDate   *time.Time         `bson:"interviewDate,omitempty" json:"interviewDate,omitempty"`
	Metadata        SubmissionMetadata `gorm:"embedded;embeddedPrefix:meta_" bson:"metadata" json:"metadata"`
	SubmissionDate  time.Time          `gorm:"not null;index" bson:"submissionDate" json:"submissionDate"`
	LastUpdated     time.Time          `gorm:"not null" bson:"lastUpdated" json:"lastUpdated"`
}

// CanEdit reports whether content fields may still change.
func (a *Application) CanEdit() bool {
	return contains(EditableStatuses, a.Status)
}

// CanWithdraw reports whether the applicant may still delete the application.
func (a *Application) CanWithdraw() bool {
	return contains(WithdrawableStatuses, a.Status)
}

// CanTransition reports whether a reviewer may move an application from one
// status to another.
func CanTransition(from, to string) bool {
	return contains(transitions[from], to)
}

// NextStatuses lists the statuses reachable from status in one step.
func NextStatuses(status string) []string {
	return append([]string{}, transitions[status]...)
}

func ValidStatus(status string) bool {
	return contains(Statuses, status)
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
