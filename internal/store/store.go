// Package store implements the metadata store: the persisted record
// sets of the archive (config, counters, archive entries, vaults) and
// the slot-path layout under the store root.
//
// On-disk layout:
//
//	<root>/
//	  config.jsonc              config document
//	  auto-incr.jsonc           counters document
//	  list.jsonl                one archive entry per line
//	  vaults.jsonl              one vault record per line
//	  logs/<period>.jsonl       append-only audit records
//	  vaults/<vaultId>/<archiveId>/<item>
//
// A Store instance exclusively owns the in-memory cache of each record
// set; all mutation goes through its load -> mutate -> save cycle. One
// instance is created per process invocation; there is no cross-process
// locking (single-writer assumption).
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"arv-go/internal/model"
)

const (
	configFile   = "config.jsonc"
	countersFile = "auto-incr.jsonc"
	entriesFile  = "list.jsonl"
	vaultsFile   = "vaults.jsonl"
	logsDirName  = "logs"
	vaultsDir    = "vaults"
)

// Store owns the metadata record sets of one archive root.
type Store struct {
	root string

	config   *model.Config
	counters *model.Counters
	entries  []*model.Entry
	vaults   []*model.Vault
}

// Open creates a Store for the given root directory. The root is
// resolved to an absolute path; no filesystem access happens until the
// first load or Init.
func Open(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving store root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute store root directory.
func (s *Store) Root() string {
	return s.root
}

// LogsDir returns the directory holding audit log files.
func (s *Store) LogsDir() string {
	return filepath.Join(s.root, logsDirName)
}

// VaultDir returns the directory holding a vault's slots.
func (s *Store) VaultDir(vaultID int64) string {
	return filepath.Join(s.root, vaultsDir, strconv.FormatInt(vaultID, 10))
}

// VaultsRoot returns the directory holding all vault directories.
func (s *Store) VaultsRoot() string {
	return filepath.Join(s.root, vaultsDir)
}

// SlotPath returns the slot directory for an archive id within a vault.
func (s *Store) SlotPath(vaultID, archiveID int64) string {
	return filepath.Join(s.VaultDir(vaultID), strconv.FormatInt(archiveID, 10))
}

// SlotObjectPath returns the path of the archived object inside its slot.
func (s *Store) SlotObjectPath(vaultID, archiveID int64, item string) string {
	return filepath.Join(s.SlotPath(vaultID, archiveID), item)
}

// StorageLocation resolves the physical slot and object paths for an
// entry. ok is false when the slot is absent or structurally invalid
// (slot path is not a directory, or the object is missing); that is a
// finding for the checker, not an error.
func (s *Store) StorageLocation(e *model.Entry) (slot, object string, ok bool, err error) {
	slot = s.SlotPath(e.VaultID, e.ID)
	object = filepath.Join(slot, e.Item)

	info, statErr := os.Lstat(slot)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return slot, object, false, nil
		}
		return slot, object, false, fmt.Errorf("stat slot: %w", statErr)
	}
	if !info.IsDir() {
		return slot, object, false, nil
	}
	if _, statErr := os.Lstat(object); statErr != nil {
		if os.IsNotExist(statErr) {
			return slot, object, false, nil
		}
		return slot, object, false, fmt.Errorf("stat slot object: %w", statErr)
	}
	return slot, object, true, nil
}

// Init prepares the store root. It is idempotent: directories are
// created if missing, metadata files are seeded with defaults if
// missing, and a current-vault pointer referring to a vault whose
// directory has disappeared is reset to the default vault.
func (s *Store) Init() error {
	for _, dir := range []string{s.root, s.LogsDir(), s.VaultsRoot(), s.VaultDir(model.DefaultVaultID)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}

	if _, err := s.Config(true); err != nil {
		return err
	}
	if err := s.SaveConfig(); err != nil {
		return err
	}
	if _, err := s.Counters(true); err != nil {
		return err
	}
	if err := s.SaveCounters(); err != nil {
		return err
	}
	for _, f := range []string{entriesFile, vaultsFile} {
		if err := touchFile(filepath.Join(s.root, f)); err != nil {
			return err
		}
	}

	// Heal a current-vault pointer whose directory is gone.
	if s.config.CurrentVaultID != model.DefaultVaultID {
		if _, err := os.Stat(s.VaultDir(s.config.CurrentVaultID)); os.IsNotExist(err) {
			s.config.CurrentVaultID = model.DefaultVaultID
			if err := s.SaveConfig(); err != nil {
				return err
			}
		}
	}
	return nil
}

func touchFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
