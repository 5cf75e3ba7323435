package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
)

// Setup installs the default slog logger: human-readable text in
// development, JSON everywhere else.
func Setup(env string) slog.Handler {
	handler := NewHandler(os.Stdout, env)
	slog.SetDefault(slog.New(handler))
	return handler
}

func NewHandler(w io.Writer, env string) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == config.EnvDevelopment {
		opts.Level = slog.LevelDebug
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
