package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "logs.db")))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestDBHandlerPersistsErrors(t *testing.T) {
	db := openDB(t)
	h := NewDBHandler(db, time.Hour)
	logger := slog.New(h).With("request_id", "req-1")

	logger.Info("ignored")
	logger.Error("application create failed",
		"op", "services.ApplicationService.Create",
		"user_id", "u1",
		"error", errors.New("boom"),
		"latency_ms", 12.6,
		"program", "Data Science",
	)
	h.Stop()

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "application create failed", entry.Message)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "services.ApplicationService.Create", entry.Op)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, 13, entry.LatencyMs)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "Data Science", extra["program"])
}

func TestDBHandlerStopIsIdempotent(t *testing.T) {
	h := NewDBHandler(openDB(t), time.Hour)
	h.Stop()
	assert.NotPanics(t, h.Stop)
}

func TestPrune(t *testing.T) {
	db := openDB(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]models.SystemLog{
		{ID: "old", Timestamp: now.AddDate(0, 0, -40), Level: "ERROR"},
		{ID: "new", Timestamp: now.AddDate(0, 0, -1), Level: "ERROR"},
	}).Error)

	deleted, err := Prune(db, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.SystemLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].ID)
}

func TestMultiHandlerFansOut(t *testing.T) {
	var text, jsonOut bytes.Buffer
	h := NewMultiHandler(
		Sink{Handler: slog.NewTextHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn})},
		Sink{Handler: NewHandler(&jsonOut, "production")},
	)
	logger := slog.New(h).With("op", "test")

	logger.Info("info only")
	logger.Warn("warned")

	assert.NotContains(t, text.String(), "info only")
	assert.Contains(t, text.String(), "warned")
	assert.Contains(t, jsonOut.String(), `"msg":"info only"`)
	assert.Contains(t, jsonOut.String(), `"op":"test"`)
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandlerSinkLevel(t *testing.T) {
	var stdout, errorsOnly bytes.Buffer
	h := NewMultiHandler(
		Sink{Handler: NewHandler(&stdout, "production")},
		Sink{Handler: NewHandler(&errorsOnly, "production"), Level: slog.LevelError},
	)
	logger := slog.New(h).WithGroup("req").With("id", "r1")

	logger.Warn("slow query")
	logger.Error("flush failed")

	assert.Contains(t, stdout.String(), "slow query")
	assert.Contains(t, stdout.String(), "flush failed")
	assert.NotContains(t, errorsOnly.String(), "slow query")
	assert.Contains(t, errorsOnly.String(), "flush failed")
	assert.Contains(t, errorsOnly.String(), `"req":{"id":"r1"}`)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandlerKeepsDeliveringPastAFailingSink(t *testing.T) {
	var out bytes.Buffer
	h := NewMultiHandler(
		Sink{Handler: failingHandler{NewHandler(&out, "production")}},
		Sink{Handler: NewHandler(&out, "production")},
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "still logged", 0))
	require.Error(t, err)
	assert.Contains(t, out.String(), "still logged")
}

func TestNewHandlerDevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "development")).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}
