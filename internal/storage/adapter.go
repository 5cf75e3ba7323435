package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
)

// Connector opens the durable backend. It is called at startup and again
// by the supervisor for as long as no durable store is available.
type Connector func(ctx context.Context) (Store, error)

// Adapter implements Store by delegating to whichever backend is active.
// The active backend only changes inside Probe, under the write lock, so a
// single call never observes a half-switched state.
type Adapter struct {
	mu       sync.RWMutex
	memory   *Memory
	durable  Store
	active   Store
	connect  Connector
	timeout  time.Duration
	onSwitch []func(mode string)
}

// NewAdapter starts in memory mode. A nil connect keeps the adapter in
// memory for its whole life.
func NewAdapter(memory *Memory, connect Connector, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		memory:  memory,
		active:  memory,
		connect: connect,
		timeout: timeout,
	}
}

// OnSwitch registers fn to run after the active backend changes.
func (a *Adapter) OnSwitch(fn func(mode string)) {
	a.mu.Lock()
	a.onSwitch = append(a.onSwitch, fn)
	a.mu.Unlock()
}

// Start makes the first connection attempt. A failure is not fatal; the
// adapter keeps serving from memory.
func (a *Adapter) Start(ctx context.Context) string {
	a.Probe(ctx)
	return a.Mode()
}

// Probe connects the durable backend if needed, pings it and switches the
// active backend to match the result.
func (a *Adapter) Probe(ctx context.Context) {
	const op = "storage.Adapter.Probe"

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	durable := a.durable
	a.mu.RUnlock()

	healthy := false
	if durable == nil {
		if a.connect == nil {
			return
		}
		store, err := a.connect(ctx)
		if err != nil {
			slog.Warn("durable storage unavailable, using in-memory store", "op", op, "error", err)
		} else {
			durable = store
			healthy = true
		}
	} else if err := durable.Ping(ctx); err != nil {
		slog.Warn("durable storage ping failed", "op", op, "mode", durable.Mode(), "error", err)
	} else {
		healthy = true
	}

	next := Store(a.memory)
	if healthy {
		next = durable
	}

	a.mu.Lock()
	a.durable = durable
	changed := a.active != next
	a.active = next
	hooks := append([]func(string){}, a.onSwitch...)
	a.mu.Unlock()

	if changed {
		slog.Info("storage backend switched", "op", op, "mode", next.Mode())
		for _, fn := range hooks {
			fn(next.Mode())
		}
	}
}

// Supervise re-probes every interval until ctx is cancelled.
func (a *Adapter) Supervise(ctx context.Context, interval time.Duration) {
	if interval <= 0 || a.connect == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Probe(ctx)
		}
	}
}

func (a *Adapter) current() Store {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

func (a *Adapter) Mode() string { return a.current().Mode() }

func (a *Adapter) Ping(ctx context.Context) error { return a.current().Ping(ctx) }

// Close closes the durable backend if one was ever opened.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	durable := a.durable
	a.durable = nil
	a.active = a.memory
	a.mu.Unlock()
	if durable == nil {
		return nil
	}
	return durable.Close(ctx)
}

func (a *Adapter) Counts(ctx context.Context) (Counts, error) { return a.current().Counts(ctx) }

// Stats describes the adapter for the health endpoint.
type Stats struct {
	Mode      string
	Durable   string
	Connected bool
	Counts
}

// Stats reads mode and counts from the same backend.
func (a *Adapter) Stats(ctx context.Context) (Stats, error) {
	a.mu.RLock()
	active, durable := a.active, a.durable
	a.mu.RUnlock()

	st := Stats{Mode: active.Mode(), Connected: active != Store(a.memory)}
	if durable != nil {
		st.Durable = durable.Mode()
	}
	counts, err := active.Counts(ctx)
	if err != nil {
		return st, err
	}
	st.Counts = counts
	return st, nil
}

func (a *Adapter) CreateUser(ctx context.Context, u *models.User) error {
	return a.current().CreateUser(ctx, u)
}

func (a *Adapter) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return a.current().FindUserByID(ctx, id)
}

func (a *Adapter) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return a.current().FindUserByEmail(ctx, email)
}

func (a *Adapter) UpdateUser(ctx context.Context, u *models.User) error {
	return a.current().UpdateUser(ctx, u)
}

func (a *Adapter) CreateApplication(ctx context.Context, app *models.Application) error {
	return a.current().CreateApplication(ctx, app)
}

func (a *Adapter) FindApplicationByID(ctx context.Context, id string) (*models.Application, error) {
	return a.current().FindApplicationByID(ctx, id)
}

func (a *Adapter) FindApplicationByUserAndProgram(ctx context.Context, userID, program string) (*models.Application, error) {
	return a.current().FindApplicationByUserAndProgram(ctx, userID, program)
}

func (a *Adapter) ListApplications(ctx context.Context, userID string) ([]models.Application, error) {
	return a.current().ListApplications(ctx, userID)
}

func (a *Adapter) UpdateApplication(ctx context.Context, app *models.Application) error {
	return a.current().UpdateApplication(ctx, app)
}

func (a *Adapter) DeleteApplication(ctx context.Context, id string) error {
	return a.current().DeleteApplication(ctx, id)
}

func (a *Adapter) CreateSession(ctx context.Context, s *models.Session) error {
	return a.current().CreateSession(ctx, s)
}

func (a *Adapter) FindSessionByRefreshHash(ctx context.Context, hash string) (*models.Session, error) {
	return a.current().FindSessionByRefreshHash(ctx, hash)
}

func (a *Adapter) FindSessionByTokenID(ctx context.Context, tokenID string) (*models.Session, error) {
	return a.current().FindSessionByTokenID(ctx, tokenID)
}

func (a *Adapter) UpdateSession(ctx context.Context, s *models.Session) error {
	return a.current().UpdateSession(ctx, s)
}

func (a *Adapter) DeleteSession(ctx context.Context, id string) error {
	return a.current().DeleteSession(ctx, id)
}
