package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, 12, cfg.BcryptRounds)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, cfg.AccountLockTime)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTAccessExpiry)
	assert.Len(t, cfg.CORSOrigins, 4)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a fallback secret")
	require.NoError(t, cfg.Validate())
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.False(t, cfg.IsDevelopment())
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCOUNT_LOCK_TIME", "600000")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "not-a-number")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.AccountLockTime)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SUBMISSION_LIMIT", "0")

	err := Load().Validate()
	assert.ErrorIs(t, err, ErrInvalidLimit)
	assert.Contains(t, err.Error(), "SUBMISSION_LIMIT")

	t.Setenv("SUBMISSION_LIMIT", "")
	t.Setenv("USER_RATE_LIMIT_MAX", "-3")
	err = Load().Validate()
	assert.ErrorIs(t, err, ErrInvalidLimit)
	assert.Contains(t, err.Error(), "USER_RATE_LIMIT_MAX")
}
