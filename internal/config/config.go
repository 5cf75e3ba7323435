package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	// Used only when APP_ENV=development and JWT_SECRET is unset.
	devJWTSecret = "masterminds-development-secret-do-not-use-in-production"
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is required")
	ErrInvalidLimit     = errors.New("limit must be positive")
)

type Config struct {
	// Server
	Env         string
	Port        string
	APIVersion  string
	BodyLimitMB int
	CORSOrigins []string

	// JWT
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Credentials
	BcryptRounds     int
	MaxLoginAttempts int
	AccountLockTime  time.Duration

	// Rate limiting
	RateLimitWindow     time.Duration
	RateLimitMax        int
	AuthRateLimitMax    int
	UserRateLimitWindow time.Duration
	UserRateLimitMax    int
	SubmissionLimit     int
	SubmissionWindow    time.Duration

	// Storage
	StorageDriver        string
	MongoURI             string
	MongoDatabase        string
	DBConnectionTimeout  time.Duration
	StorageProbeInterval time.Duration
	DBHost               string
	DBPort               string
	DBUser               string
	DBPassword           string
	DBName               string
	DBSSLMode            string
	SQLitePath           string

	// Token denylist
	RedisURL string

	// Admin
	AdminEmails string

	// Observability
	SentryDSN    string
	LogRetention time.Duration
}

func Load() *Config {
	cfg := &Config{
		Env:         getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment)),
		Port:        getEnv("PORT", "5001"),
		APIVersion:  getEnv("API_VERSION", "v1"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 10),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:5174",
			"http://localhost:5175",
			"http://localhost:5176",
		}),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "masterminds-api"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "masterminds-app"),
		JWTAccessExpiry:  getEnvDuration("JWT_ACCESS_EXPIRY", 7*24*time.Hour),
		JWTRefreshExpiry: getEnvDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),

		BcryptRounds:     getEnvInt("BCRYPT_ROUNDS", 12),
		MaxLoginAttempts: getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		AccountLockTime:  getEnvDuration("ACCOUNT_LOCK_TIME", 30*time.Minute),

		RateLimitWindow:     getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:        getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		AuthRateLimitMax:    getEnvInt("AUTH_RATE_LIMIT_MAX", 10),
		UserRateLimitWindow: getEnvDuration("USER_RATE_LIMIT_WINDOW", 15*time.Minute),
		UserRateLimitMax:    getEnvInt("USER_RATE_LIMIT_MAX", 100),
		SubmissionLimit:     getEnvInt("SUBMISSION_LIMIT", 10),
		SubmissionWindow:    getEnvDuration("SUBMISSION_WINDOW", time.Hour),

		StorageDriver:        strings.ToLower(getEnv("STORAGE_DRIVER", "mongodb")),
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017/masterminds"),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "masterminds"),
		DBConnectionTimeout:  getEnvDuration("DB_CONNECTION_TIMEOUT", 10*time.Second),
		StorageProbeInterval: getEnvDuration("STORAGE_PROBE_INTERVAL", 30*time.Second),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", ""),
		DBName:               getEnv("DB_NAME", "masterminds"),
		DBSSLMode:            getEnv("DB_SSLMODE", "disable"),
		SQLitePath:           getEnv("SQLITE_PATH", "masterminds.db"),

		RedisURL: getEnv("REDIS_URL", ""),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		SentryDSN:    getEnv("SENTRY_DSN", ""),
		LogRetention: getEnvDuration("LOG_RETENTION", 30*24*time.Hour),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// Validate reports configuration that must stop the process from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	limits := []struct {
		key string
		val int64
	}{
		{"RATE_LIMIT_MAX_REQUESTS", int64(c.RateLimitMax)},
		{"AUTH_RATE_LIMIT_MAX", int64(c.AuthRateLimitMax)},
		{"USER_RATE_LIMIT_MAX", int64(c.UserRateLimitMax)},
		{"SUBMISSION_LIMIT", int64(c.SubmissionLimit)},
		{"MAX_LOGIN_ATTEMPTS", int64(c.MaxLoginAttempts)},
		{"RATE_LIMIT_WINDOW", int64(c.RateLimitWindow)},
		{"USER_RATE_LIMIT_WINDOW", int64(c.UserRateLimitWindow)},
		{"SUBMISSION_WINDOW", int64(c.SubmissionWindow)},
	}
	for _, l := range limits {
		if l.val <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidLimit, l.key)
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("30m") and, for compatibility with
// older deployments, bare millisecond counts ("1800000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
