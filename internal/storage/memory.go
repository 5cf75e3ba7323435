package storage

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
)

// Memory keeps every entity in process maps keyed by a per-kind counter.
// Uniqueness checks and inserts happen under the same lock. Records are
// copied in and out so callers never share state with the store.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	applications map[string]*models.Application
	sessions     map[string]*models.Session
	userSeq      int64
	appSeq       int64
	sessionSeq   int64
}

func NewMemory() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset drops all records and restarts the id counters.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*models.User)
	m.applications = make(map[string]*models.Application)
	m.sessions = make(map[string]*models.Session)
	m.userSeq, m.appSeq, m.sessionSeq = 0, 0, 0
}

func (m *Memory) Mode() string                { return ModeMemory }
func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) Counts(context.Context) (Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Counts{
		Users:        int64(len(m.users)),
		Applications: int64(len(m.applications)),
		Sessions:     int64(len(m.sessions)),
	}, nil
}

// Users

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userByEmail(u.Email) != nil {
		return ErrDuplicate
	}
	if u.ID == "" {
		m.userSeq++
		u.ID = strconv.FormatInt(m.userSeq, 10)
	}
	if _, exists := m.users[u.ID]; exists {
		return ErrDuplicate
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u := m.userByEmail(email)
	if u == nil {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	if other := m.userByEmail(u.Email); other != nil && other.ID != u.ID {
		return ErrDuplicate
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) userByEmail(email string) *models.User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// Applications

func (m *Memory) CreateApplication(_ context.Context, a *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.applications {
		if existing.UserID == a.UserID && existing.Program == a.Program {
			return ErrDuplicate
		}
		if a.ReferenceNumber != "" && existing.ReferenceNumber == a.ReferenceNumber {
			return ErrDuplicate
		}
	}
	if a.ID == "" {
		m.appSeq++
		a.ID = strconv.FormatInt(m.appSeq, 10)
	}
	m.applications[a.ID] = cloneApplication(a)
	return nil
}

func (m *Memory) FindApplicationByID(_ context.Context, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneApplication(a), nil
}

func (m *Memory) FindApplicationByUserAndProgram(_ context.Context, userID, program string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.applications {
		if a.UserID == userID && a.Program == program {
			return cloneApplication(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListApplications(_ context.Context, userID string) ([]models.Application, error) {
	m.mu.RLock()
	out := make([]models.Application, 0)
	for _, a := range m.applications {
		if userID == "" || a.UserID == userID {
			out = append(out, *cloneApplication(a))
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmissionDate.After(out[j].SubmissionDate)
	})
	return out, nil
}

func (m *Memory) UpdateApplication(_ context.Context, a *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.applications[a.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.applications {
		if id == a.ID {
			continue
		}
		if existing.UserID == a.UserID && existing.Program == a.Program {
			return ErrDuplicate
		}
		if a.ReferenceNumber != "" && existing.ReferenceNumber == a.ReferenceNumber {
			return ErrDuplicate
		}
	}
	m.applications[a.ID] = cloneApplication(a)
	return nil
}

func (m *Memory) DeleteApplication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[id]; !ok {
		return ErrNotFound
	}
	delete(m.applications, id)
	return nil
}

// Sessions

func (m *Memory) CreateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sessions {
		if existing.RefreshTokenHash == s.RefreshTokenHash {
			return ErrDuplicate
		}
	}
	if s.ID == "" {
		m.sessionSeq++
		s.ID = strconv.FormatInt(m.sessionSeq, 10)
	}
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *Memory) FindSessionByRefreshHash(_ context.Context, hash string) (*models.Session, error) {
	return m.findSession(func(s *models.Session) bool { return s.RefreshTokenHash == hash })
}

func (m *Memory) FindSessionByTokenID(_ context.Context, tokenID string) (*models.Session, error) {
	return m.findSession(func(s *models.Session) bool { return s.TokenID == tokenID })
}

func (m *Memory) findSession(match func(*models.Session) bool) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if match(s) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneApplication(a *models.Application) *models.Application {
	c := *a
	if a.TechnicalSkills != nil {
		c.TechnicalSkills = append([]models.Skill(nil), a.TechnicalSkills...)
	}
	if a.Projects != nil {
		c.Projects = make([]models.Project, len(a.Projects))
		for i, p := range a.Projects {
			p.Technologies = append([]string(nil), p.Technologies...)
			c.Projects[i] = p
		}
	}
	return &c
}
