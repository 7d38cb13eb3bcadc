// Package audit writes the append-only operation log of the archive
// store. The logger is a pure sink: it allocates record ids from the
// store's log counter, stamps the clock, and appends one JSONL record
// per event to logs/<period>.jsonl. It never reads history back; the
// History reader in this package is a separate consumer.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// Clock abstracts time retrieval so records are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Logger appends immutable audit records to per-period log files.
type Logger struct {
	store *store.Store
	clock Clock
}

// New creates a Logger writing into the given store's logs directory.
func New(st *store.Store, clock Clock) *Logger {
	return &Logger{store: st, clock: clock}
}

// Log appends one record. The record id comes from the persisted log
// counter, so ids stay unique across invocations. A write failure is
// returned to the caller: the log is the only durable record of who
// changed what, so it must not be dropped silently.
func (l *Logger) Log(level model.LogLevel, op model.Operation, message string, refs model.Refs) error {
	id, err := l.store.NextID(store.CounterLog)
	if err != nil {
		return fmt.Errorf("allocating log id: %w", err)
	}

	now := l.clock.Now()
	entry := model.LogEntry{
		ID:        id,
		Time:      now.Format(time.RFC3339),
		Level:     level,
		Operation: op,
		Message:   message,
		ArchiveID: refs.ArchiveID,
		VaultID:   refs.VaultID,
	}

	dir := l.store.LogsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding log record: %w", err)
	}

	path := filepath.Join(dir, periodName(now)+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending log record: %w", err)
	}
	return nil
}

// periodName returns the log file base name for a point in time. One
// file per calendar month.
func periodName(t time.Time) string {
	return t.Format("2006-01")
}
