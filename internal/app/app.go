package app

import (
	"fmt"
	"os"

	"arv-go/internal/arv"
	"arv-go/internal/audit"
	"arv-go/internal/config"
	"arv-go/internal/model"
	"arv-go/internal/store"

	"github.com/google/uuid"
)

// App is the application layer between the CLI and the archive engine.
// It wires the metadata store, audit logger and service together,
// accepts raw string input from the command boundary, and owns the
// diagnostic log file lifecycle.
type App struct {
	cfg     *config.Config
	store   *store.Store
	service *arv.Service
	source  string
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. Every
// invocation gets a fresh source id that tags all its audit records.
// The caller must call Close when done.
func NewApp(cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := st.Init(); err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	source := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, source)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	clock := arv.RealClock{}
	auditor := audit.New(st, clock)
	svc := arv.NewService(st, auditor, &slogAdapter{l: logger}, clock, source)

	return &App{
		cfg:     cfg,
		store:   st,
		service: svc,
		source:  source,
		logFile: logFile,
	}, nil
}

// Store exposes the underlying metadata store for read-only consumers
// (history display, alias lookups).
func (a *App) Store() *store.Store {
	return a.store
}

// Put archives the given paths into the referenced vault. An empty
// vault reference targets the current vault.
func (a *App) Put(paths []string, vaultRef, message, remark string) (*arv.Result, error) {
	return a.service.Put(paths, vaultRef, message, remark)
}

// Restore restores the given archive ids, parsing them from their raw
// string form. A non-numeric id aborts the whole batch before any
// change, matching the service's fail-fast pre-validation.
func (a *App) Restore(rawIDs []string) (*arv.Result, error) {
	ids, err := parseIDs(rawIDs)
	if err != nil {
		return nil, err
	}
	return a.service.Restore(ids)
}

// Move relocates the given archive ids into another vault.
func (a *App) Move(rawIDs []string, vaultRef string) (*arv.Result, error) {
	ids, err := parseIDs(rawIDs)
	if err != nil {
		return nil, err
	}
	return a.service.Move(ids, vaultRef)
}

// ResolveCd resolves a cd target to its absolute slot path.
func (a *App) ResolveCd(target string) (string, error) {
	return a.service.ResolveCdTarget(target)
}

// CreateVault creates (or, with recoverRemoved, reactivates) a vault.
func (a *App) CreateVault(name, remark string, activate, recoverRemoved bool) (*model.Vault, error) {
	return a.service.CreateVault(name, remark, activate, recoverRemoved)
}

// RemoveVault soft-deletes a vault after relocating its archives into
// the default vault. Returns the vault and the relocation count.
func (a *App) RemoveVault(ref string) (*model.Vault, int, error) {
	return a.service.RemoveVault(ref)
}

// RecoverVault flips a removed vault back to valid.
func (a *App) RecoverVault(ref string) (*model.Vault, error) {
	return a.service.RecoverVault(ref)
}

// RenameVault gives a vault a new name.
func (a *App) RenameVault(ref, newName string) (*model.Vault, error) {
	return a.service.RenameVault(ref, newName)
}

// UseVault sets the current vault.
func (a *App) UseVault(ref string) (*model.Vault, error) {
	return a.service.UseVault(ref)
}

// ListVaults returns vaults, optionally including removed ones.
func (a *App) ListVaults(includeRemoved bool) ([]*model.Vault, error) {
	return a.service.ListVaults(includeRemoved)
}

// ListEntries returns archive entries, optionally filtered to a vault.
func (a *App) ListEntries(vaultRef string) ([]*model.Entry, error) {
	return a.service.ListEntries(vaultRef)
}

// Check runs the consistency checker and returns its report.
func (a *App) Check() (*arv.Report, error) {
	return a.service.Check()
}

// History returns the most recent audit records, newest first.
func (a *App) History(limit int) ([]*model.LogEntry, error) {
	return audit.History(a.store, limit)
}

// Close releases the diagnostic log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := arv.ParseArchiveID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
