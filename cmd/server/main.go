package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/denylist"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/server"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/storage"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	stdout := logging.Setup(cfg.Env)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
			Release:          "masterminds-backend@" + server.Version,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: durable backend behind the in-memory fallback
	logs := &dbLogs{stdout: stdout, retention: cfg.LogRetention, done: make(chan struct{})}
	adapter := storage.NewAdapter(storage.NewMemory(), connector(cfg, logs.attach), cfg.DBConnectionTimeout)
	adapter.OnSwitch(metrics.SetStorageMode)
	mode := adapter.Start(ctx)
	metrics.SetStorageMode(mode)
	slog.Info("storage ready", "driver", cfg.StorageDriver, "mode", mode)
	go adapter.Supervise(ctx, cfg.StorageProbeInterval)

	// Token denylist
	revoked := newDenylist(ctx, cfg)

	srv := server.New(cfg, server.Deps{Storage: adapter, Revoked: revoked})
	srv.StartCleanup(ctx, 5*time.Minute)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "api_version", cfg.APIVersion)
		if err := srv.App.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	cancel()
	if err := srv.App.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := adapter.Close(closeCtx); err != nil {
		slog.Error("storage close error", "error", err)
	}
	if err := revoked.Close(); err != nil {
		slog.Error("denylist close error", "error", err)
	}
	logs.stop()
	sentry.Flush(2 * time.Second)

	slog.Info("server stopped")
}

// connector opens the durable store selected by STORAGE_DRIVER. "memory"
// returns nil and the adapter never leaves the in-memory store.
func connector(cfg *config.Config, onSQL func(*gorm.DB)) storage.Connector {
	switch cfg.StorageDriver {
	case "mongodb":
		return func(ctx context.Context) (storage.Store, error) {
			client, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBConnectionTimeout)
			if err != nil {
				return nil, err
			}
			store, err := storage.NewMongoStore(ctx, client, cfg.MongoDatabase)
			if err != nil {
				_ = client.Disconnect(context.Background())
				return nil, err
			}
			return store, nil
		}
	case "postgres", "sqlite":
		return func(ctx context.Context) (storage.Store, error) {
			db, err := database.Open(cfg)
			if err != nil {
				return nil, err
			}
			if err := database.Migrate(db); err != nil {
				if sqlDB, dbErr := db.DB(); dbErr == nil {
					_ = sqlDB.Close()
				}
				return nil, err
			}
			onSQL(db)
			return storage.NewSQLStore(db, cfg.StorageDriver), nil
		}
	default:
		if cfg.StorageDriver != "memory" {
			slog.Warn("unknown storage driver, using memory", "driver", cfg.StorageDriver)
		}
		return nil
	}
}

func newDenylist(ctx context.Context, cfg *config.Config) denylist.Denylist {
	if cfg.RedisURL != "" {
		r, err := denylist.NewRedis(ctx, cfg.RedisURL)
		if err == nil {
			slog.Info("token denylist ready", "backend", "redis")
			return r
		}
		slog.Error("redis unavailable, using in-process denylist", "error", err)
	}
	m := denylist.NewMemory(nil)
	m.StartSweep(ctx, time.Minute)
	return m
}

// dbLogs mirrors ERROR+ logs into system_logs once a SQL store is
// connected. attach may run from the storage supervisor.
type dbLogs struct {
	mu        sync.Mutex
	stdout    slog.Handler
	retention time.Duration
	handler   *logging.DBHandler
	done      chan struct{}
}

func (l *dbLogs) attach(db *gorm.DB) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handler != nil {
		return
	}
	l.handler = logging.NewDBHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.Sink{Handler: l.stdout},
		logging.Sink{Handler: l.handler, Level: slog.LevelError},
	)))
	logging.StartCleanup(db, l.retention, l.done)
}

func (l *dbLogs) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.done)
	if l.handler != nil {
		l.handler.Stop()
	}
}
