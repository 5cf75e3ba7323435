// Package storage persists users, applications and sessions. Store has a
// durable implementation per database and an in-memory fallback; Adapter
// chooses between them at runtime.
package storage

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const (
	ModeMemory   = "memory"
	ModeMongo    = "mongodb"
	ModePostgres = "postgres"
	ModeSQLite   = "sqlite"
)

// Counts is a snapshot of row counts for the health endpoint.
type Counts struct {
	Users        int64
	Applications int64
	Sessions     int64
}

// Store is implemented by every backend. Create methods assign the ID when
// it is empty. Lookups return ErrNotFound; writes that would break a
// uniqueness invariant (user email, application user+program, application
// reference number, session refresh hash) return ErrDuplicate.
type Store interface {
	Mode() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Counts(ctx context.Context) (Counts, error)

	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	CreateApplication(ctx context.Context, a *models.Application) error
	FindApplicationByID(ctx context.Context, id string) (*models.Application, error)
	FindApplicationByUserAndProgram(ctx context.Context, userID, program string) (*models.Application, error)
	// ListApplications returns the applications of userID, or of every user
	// when userID is empty, newest submission first.
	ListApplications(ctx context.Context, userID string) ([]models.Application, error)
	UpdateApplication(ctx context.Context, a *models.Application) error
	DeleteApplication(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s *models.Session) error
	FindSessionByRefreshHash(ctx context.Context, hash string) (*models.Session, error)
	FindSessionByTokenID(ctx context.Context, tokenID string) (*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}
