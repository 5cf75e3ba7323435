package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Sink is one destination of a MultiHandler. Records below Level never
// reach Handler; a nil Level defers entirely to Handler.Enabled.
type Sink struct {
	Handler slog.Handler
	Level   slog.Leveler
}

// MultiHandler tees records into several sinks, typically stdout plus the
// system_logs table. A failing sink does not stop delivery to the others.
type MultiHandler struct {
	sinks []Sink
}

func NewMultiHandler(sinks ...Sink) *MultiHandler {
	return &MultiHandler{sinks: sinks}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range m.sinks {
		if s.admits(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if !s.admits(ctx, record.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	sinks := make([]Sink, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = Sink{Handler: fn(s.Handler), Level: s.Level}
	}
	return &MultiHandler{sinks: sinks}
}

func (s Sink) admits(ctx context.Context, level slog.Level) bool {
	if s.Level != nil && level < s.Level.Level() {
		return false
	}
	return s.Handler.Enabled(ctx, level)
}
