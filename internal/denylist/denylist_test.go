package denylist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevokeUntilExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	d := NewMemory(func() time.Time { return now })

	require.NoError(t, d.Revoke(ctx, "jti-1", now.Add(time.Hour)))

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(61 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry lapses with the token")
}

func TestMemoryIgnoresAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	d := NewMemory(func() time.Time { return now })

	require.NoError(t, d.Revoke(ctx, "old", now.Add(-time.Second)))
	revoked, err := d.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	d := NewMemory(func() time.Time { return now })

	require.NoError(t, d.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, d.Revoke(ctx, "b", now.Add(time.Hour)))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, d.Sweep())
	revoked, _ := d.IsRevoked(ctx, "b")
	assert.True(t, revoked)
}

func TestRedisKeyFormat(t *testing.T) {
	assert.Equal(t, "revoked:abc", keyFor("abc"))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "://nope")
	assert.Error(t, err)
}
