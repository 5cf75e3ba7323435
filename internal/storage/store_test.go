package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newUser(email string) *models.User {
	return &models.User{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     email,
		Password:  "hash",
		Role:      models.RoleUser,
		CreatedAt: base,
		UpdatedAt: base,
	}
}

func newApplication(userID, program, ref string, submitted time.Time) *models.Application {
	return &models.Application{
		UserID:     userID,
		Program:    program,
		Motivation: "motivation",
		Experience: "experience",
		Goals:      "goals",
		Availability: models.Availability{
			StartDate:      submitted.AddDate(0, 1, 0),
			TimeCommitment: "Flexible",
		},
		TechnicalSkills: []models.Skill{{Skill: "Go", Level: "Advanced", AddedAt: submitted}},
		Status:          models.StatusPending,
		ReferenceNumber: ref,
		Metadata:        models.SubmissionMetadata{SubmissionSource: models.SubmissionSourceWeb},
		SubmissionDate:  submitted,
		LastUpdated:     submitted,
	}
}

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := database.OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "store.db")))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	s := NewSQLStore(db, ModeSQLite)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		ModeMemory: func(*testing.T) Store { return NewMemory() },
		ModeSQLite: newSQLiteStore,
	}
}

func TestStoreUsers(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			u := newUser("grace@example.com")
			require.NoError(t, s.CreateUser(ctx, u))
			require.NotEmpty(t, u.ID)

			err := s.CreateUser(ctx, newUser("grace@example.com"))
			assert.ErrorIs(t, err, ErrDuplicate)

			found, err := s.FindUserByEmail(ctx, "grace@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, found.ID)

			found.LoginAttempts = 3
			lock := base.Add(time.Hour)
			found.LockUntil = &lock
			require.NoError(t, s.UpdateUser(ctx, found))

			again, err := s.FindUserByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, again.LoginAttempts)
			require.NotNil(t, again.LockUntil)

			// zero values must be written too
			again.LoginAttempts = 0
			again.LockUntil = nil
			require.NoError(t, s.UpdateUser(ctx, again))
			cleared, err := s.FindUserByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, cleared.LoginAttempts)
			assert.Nil(t, cleared.LockUntil)

			_, err = s.FindUserByID(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.FindUserByEmail(ctx, "nobody@example.com")
			assert.ErrorIs(t, err, ErrNotFound)

			ghost := newUser("ghost@example.com")
			ghost.ID = "does-not-exist"
			assert.ErrorIs(t, s.UpdateUser(ctx, ghost), ErrNotFound)

			counts, err := s.Counts(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), counts.Users)
		})
	}
}

func TestStoreApplications(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			first := newApplication("u1", "Full Stack Development", "MM-2026-AAAAAA", base)
			require.NoError(t, s.CreateApplication(ctx, first))
			require.NotEmpty(t, first.ID)

			dup := newApplication("u1", "Full Stack Development", "MM-2026-BBBBBB", base)
			assert.ErrorIs(t, s.CreateApplication(ctx, dup), ErrDuplicate)

			sameRef := newApplication("u2", "Data Science", "MM-2026-AAAAAA", base)
			assert.ErrorIs(t, s.CreateApplication(ctx, sameRef), ErrDuplicate)

			second := newApplication("u1", "Data Science", "MM-2026-CCCCCC", base.Add(time.Hour))
			require.NoError(t, s.CreateApplication(ctx, second))
			other := newApplication("u2", "Data Science", "MM-2026-DDDDDD", base.Add(2*time.Hour))
			require.NoError(t, s.CreateApplication(ctx, other))

			mine, err := s.ListApplications(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, second.ID, mine[0].ID, "newest first")
			assert.Equal(t, first.ID, mine[1].ID)
			require.Len(t, mine[0].TechnicalSkills, 1)
			assert.Equal(t, "Go", mine[0].TechnicalSkills[0].Skill)

			all, err := s.ListApplications(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			found, err := s.FindApplicationByUserAndProgram(ctx, "u1", "Data Science")
			require.NoError(t, err)
			assert.Equal(t, second.ID, found.ID)

			found.Status = models.StatusUnderReview
			found.Projects = []models.Project{{Name: "Site", Description: "A site", Technologies: []string{"Go"}}}
			require.NoError(t, s.UpdateApplication(ctx, found))

			got, err := s.FindApplicationByID(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusUnderReview, got.Status)
			require.Len(t, got.Projects, 1)
			assert.Equal(t, []string{"Go"}, got.Projects[0].Technologies)

			require.NoError(t, s.DeleteApplication(ctx, first.ID))
			assert.ErrorIs(t, s.DeleteApplication(ctx, first.ID), ErrNotFound)
			_, err = s.FindApplicationByID(ctx, first.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			// the (user, program) slot is free again after a withdrawal
			again := newApplication("u1", "Full Stack Development", "MM-2026-EEEEEE", base.Add(3*time.Hour))
			assert.NoError(t, s.CreateApplication(ctx, again))
		})
	}
}

func TestStoreSessions(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			sess := &models.Session{
				UserID:           "u1",
				TokenID:          "jti-1",
				RefreshTokenHash: "hash-1",
				ExpiresAt:        base.Add(24 * time.Hour),
				CreatedAt:        base,
				UpdatedAt:        base,
			}
			require.NoError(t, s.CreateSession(ctx, sess))

			clash := *sess
			clash.ID = ""
			assert.ErrorIs(t, s.CreateSession(ctx, &clash), ErrDuplicate)

			byHash, err := s.FindSessionByRefreshHash(ctx, "hash-1")
			require.NoError(t, err)
			assert.Equal(t, sess.ID, byHash.ID)

			byHash.TokenID = "jti-2"
			require.NoError(t, s.UpdateSession(ctx, byHash))

			_, err = s.FindSessionByTokenID(ctx, "jti-1")
			assert.ErrorIs(t, err, ErrNotFound)
			byToken, err := s.FindSessionByTokenID(ctx, "jti-2")
			require.NoError(t, err)
			assert.Equal(t, sess.ID, byToken.ID)

			require.NoError(t, s.DeleteSession(ctx, sess.ID))
			_, err = s.FindSessionByRefreshHash(ctx, "hash-1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryCountersAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a := newUser("a@example.com")
	b := newUser("b@example.com")
	require.NoError(t, m.CreateUser(ctx, a))
	require.NoError(t, m.CreateUser(ctx, b))
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "2", b.ID)

	m.Reset()
	counts, err := m.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Users)

	c := newUser("c@example.com")
	require.NoError(t, m.CreateUser(ctx, c))
	assert.Equal(t, "1", c.ID)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	app := newApplication("u1", "Data Science", "MM-2026-AAAAAA", base)
	require.NoError(t, m.CreateApplication(ctx, app))
	app.Status = models.StatusAccepted
	app.TechnicalSkills[0].Skill = "mutated"

	got, err := m.FindApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "Go", got.TechnicalSkills[0].Skill)
}

func TestMemoryConcurrentDuplicateApplications(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := fmt.Sprintf("MM-2026-%06d", i)
			results <- m.CreateApplication(ctx, newApplication("u1", "Data Science", ref, base))
		}(i)
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, ErrDuplicate)
		}
	}
	assert.Equal(t, 1, created)
}
