package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// arvHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<source>\t<message>\t<key=value ...>
type arvHandler struct {
	w      io.Writer
	source string
	attrs  []slog.Attr
}

func (h *arvHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *arvHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.source, r.Message)
	if err != nil {
		return err
	}

	// Write pre-set attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *arvHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &arvHandler{
		w:      h.w,
		source: h.source,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *arvHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to logDir/arv.log.
// Diagnostic records stay out of stdout so the cd hand-off line is the
// only thing a shell wrapper ever captures. It returns the slog.Logger,
// the open log file (for cleanup), and any error.
func newLogger(logDir string, source string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "arv.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &arvHandler{w: f, source: source}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the arv.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
