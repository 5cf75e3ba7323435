package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDurable is a Memory that reports itself as MongoDB and can be told
// to fail its health check.
type fakeDurable struct {
	*Memory
	mu      sync.Mutex
	pingErr error
	closed  bool
}

func (f *fakeDurable) Mode() string { return ModeMongo }

func (f *fakeDurable) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeDurable) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeDurable) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

func assertConnected(t *testing.T, a *Adapter, want bool) {
	t.Helper()
	st, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, st.Connected)
}

func TestAdapterWithoutConnectorStaysInMemory(t *testing.T) {
	a := NewAdapter(NewMemory(), nil, time.Second)
	assert.Equal(t, ModeMemory, a.Start(context.Background()))
	st, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Connected)
	assert.Empty(t, st.Durable)
}

func TestAdapterFallsBackWhenConnectFails(t *testing.T) {
	calls := 0
	a := NewAdapter(NewMemory(), func(context.Context) (Store, error) {
		calls++
		return nil, errors.New("connection refused")
	}, time.Second)

	assert.Equal(t, ModeMemory, a.Start(context.Background()))
	a.Probe(context.Background())
	assert.Equal(t, 2, calls, "connect retried while no durable store exists")
	assertConnected(t, a, false)

	require.NoError(t, a.CreateUser(context.Background(), newUser("x@example.com")))
	counts, err := a.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Users)
}

func TestAdapterSwitchesWithDurableHealth(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	durable := &fakeDurable{Memory: NewMemory()}
	connects := 0
	a := NewAdapter(memory, func(context.Context) (Store, error) {
		connects++
		return durable, nil
	}, time.Second)

	var switches []string
	a.OnSwitch(func(mode string) { switches = append(switches, mode) })

	assert.Equal(t, ModeMongo, a.Start(ctx))
	assertConnected(t, a, true)

	require.NoError(t, a.CreateUser(ctx, newUser("durable@example.com")))
	_, err := durable.FindUserByEmail(ctx, "durable@example.com")
	require.NoError(t, err)
	_, err = memory.FindUserByEmail(ctx, "durable@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	durable.setPingErr(errors.New("server selection timeout"))
	a.Probe(ctx)
	assert.Equal(t, ModeMemory, a.Mode())
	assertConnected(t, a, false)

	durable.setPingErr(nil)
	a.Probe(ctx)
	assert.Equal(t, ModeMongo, a.Mode())
	assert.Equal(t, 1, connects, "an existing durable store is pinged, not reopened")
	assert.Equal(t, []string{ModeMongo, ModeMemory, ModeMongo}, switches)

	require.NoError(t, a.Close(ctx))
	assert.True(t, durable.closed)
	assert.Equal(t, ModeMemory, a.Mode())
}

func TestAdapterSupervise(t *testing.T) {
	durable := &fakeDurable{Memory: NewMemory()}
	var mu sync.Mutex
	available := false
	a := NewAdapter(NewMemory(), func(context.Context) (Store, error) {
		mu.Lock()
		defer mu.Unlock()
		if !available {
			return nil, errors.New("not yet")
		}
		return durable, nil
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, ModeMemory, a.Start(ctx))
	go a.Supervise(ctx, 10*time.Millisecond)

	mu.Lock()
	available = true
	mu.Unlock()

	assert.Eventually(t, func() bool { st, err := a.Stats(ctx); return err == nil && st.Connected }, time.Second, 10*time.Millisecond)
}

func TestAdapterStats(t *testing.T) {
	ctx := context.Background()
	durable := &fakeDurable{Memory: NewMemory()}
	a := NewAdapter(NewMemory(), func(context.Context) (Store, error) { return durable, nil }, time.Second)

	st, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Mode: ModeMemory}, st)

	a.Start(ctx)
	require.NoError(t, a.CreateUser(ctx, newUser("stats@example.com")))
	st, err = a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeMongo, st.Mode)
	assert.Equal(t, ModeMongo, st.Durable)
	assert.True(t, st.Connected)
	assert.Equal(t, int64(1), st.Users)
}
