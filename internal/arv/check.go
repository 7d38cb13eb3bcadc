package arv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"arv-go/internal/audit"
	"arv-go/internal/model"
)

// Severity classifies a checker finding. Only error-level findings
// should affect a process exit code; warnings are soft drift.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Issue is one checker finding with a machine-readable code.
type Issue struct {
	Code     string
	Severity Severity
	Message  string
}

// Report is the outcome of a consistency check: findings plus
// informational summary lines. Producing a report never mutates the
// store.
type Report struct {
	Issues  []Issue
	Summary []string
}

// HasErrors reports whether any finding is error-level.
func (r *Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) errorf(code, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Code: code, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(code, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Code: code, Severity: SeverityWarn, Message: fmt.Sprintf(format, args...)})
}

// Checker finding codes.
const (
	CodeMissingRequiredPath    = "MISSING_REQUIRED_PATH"
	CodeCurrentVaultInvalid    = "CURRENT_VAULT_INVALID"
	CodeDuplicateArchiveID     = "DUPLICATE_ARCHIVE_ID"
	CodeDuplicateVaultID       = "DUPLICATE_VAULT_ID"
	CodeDuplicateVaultName     = "DUPLICATE_VAULT_NAME"
	CodeDuplicateLogID         = "DUPLICATE_LOG_ID"
	CodeArchiveCounterBehind   = "ARCHIVE_COUNTER_BEHIND"
	CodeVaultCounterBehind     = "VAULT_COUNTER_BEHIND"
	CodeLogCounterBehind       = "LOG_COUNTER_BEHIND"
	CodeMissingArchiveObject   = "MISSING_ARCHIVE_OBJECT"
	CodeTypeMismatch           = "TYPE_MISMATCH"
	CodeRestoreTargetOccupied  = "RESTORE_TARGET_OCCUPIED"
	CodeOrphanSlot             = "ORPHAN_SLOT"
	CodeRestoredObjectMissing  = "RESTORED_OBJECT_MISSING"
	CodeRestoredTypeMismatch   = "RESTORED_OBJECT_TYPE_MISMATCH"
	CodeNonNumericVaultDir     = "NON_NUMERIC_VAULT_DIR"
	CodeNonNumericSlotDir      = "NON_NUMERIC_SLOT_DIR"
	CodeUnknownVaultDir        = "UNKNOWN_VAULT_DIR"
	CodeOrphanArchiveObject    = "ORPHAN_ARCHIVE_OBJECT"
	CodeInvalidSlot            = "INVALID_SLOT"
	CodeMissingVaultDir        = "MISSING_VAULT_DIR"
	CodeLogReadFailed          = "LOG_READ_FAILED"
)

// Check audits the metadata record sets against the filesystem and
// reports every discrepancy. It is strictly read-only: no finding
// causes a state change, and no audit record is written. Record sets
// are force-refreshed so the check sees the files as they are, not a
// stale cache.
func (s *Service) Check() (*Report, error) {
	r := &Report{}

	s.checkRequiredPaths(r)

	cfg, err := s.store.Config(true)
	if err != nil {
		return nil, err
	}
	counters, err := s.store.Counters(true)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Entries(true)
	if err != nil {
		return nil, err
	}
	vaults, err := s.store.Vaults(true)
	if err != nil {
		return nil, err
	}

	s.checkCurrentVault(r, cfg, vaults)
	s.checkUniquenessAndCounters(r, counters, entries, vaults)
	s.checkEntriesAgainstFilesystem(r, entries)
	s.checkVaultsTree(r, entries, vaults)
	s.checkVaultDirs(r, vaults)
	logCount := s.checkLogs(r, counters)

	r.Summary = append(r.Summary,
		fmt.Sprintf("%d archive entries checked", len(entries)),
		fmt.Sprintf("%d vaults checked", len(vaults)),
		fmt.Sprintf("%d log records checked", logCount),
		fmt.Sprintf("%d issues found", len(r.Issues)),
	)
	return r, nil
}

// (a) required paths.
func (s *Service) checkRequiredPaths(r *Report) {
	required := []string{
		s.store.Root(),
		filepath.Join(s.store.Root(), "config.jsonc"),
		filepath.Join(s.store.Root(), "auto-incr.jsonc"),
		filepath.Join(s.store.Root(), "list.jsonl"),
		filepath.Join(s.store.Root(), "vaults.jsonl"),
		s.store.LogsDir(),
		s.store.VaultsRoot(),
	}
	for _, p := range required {
		if _, err := os.Lstat(p); err != nil {
			r.errorf(CodeMissingRequiredPath, "required path is missing: %s", p)
		}
	}
}

// (b) the current-vault pointer must name an existing, active vault.
func (s *Service) checkCurrentVault(r *Report, cfg *model.Config, vaults []*model.Vault) {
	for _, v := range vaults {
		if v.ID == cfg.CurrentVaultID {
			if !v.Active() {
				r.errorf(CodeCurrentVaultInvalid, "current vault #%d (%s) is removed", v.ID, v.Name)
			}
			return
		}
	}
	r.errorf(CodeCurrentVaultInvalid, "current vault #%d does not exist", cfg.CurrentVaultID)
}

// (c) id/name uniqueness and counter monotonicity for archives and
// vaults. Log counters are handled in checkLogs.
func (s *Service) checkUniquenessAndCounters(r *Report, counters *model.Counters, entries []*model.Entry, vaults []*model.Vault) {
	var maxEntryID int64
	seenEntry := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if seenEntry[e.ID] {
			r.errorf(CodeDuplicateArchiveID, "archive id %d appears more than once", e.ID)
		}
		seenEntry[e.ID] = true
		if e.ID > maxEntryID {
			maxEntryID = e.ID
		}
	}
	if counters.ArchiveID < maxEntryID {
		r.errorf(CodeArchiveCounterBehind, "archive counter %d is behind max archive id %d", counters.ArchiveID, maxEntryID)
	}

	var maxVaultID int64
	seenVault := make(map[int64]bool, len(vaults))
	seenName := make(map[string]bool, len(vaults))
	for _, v := range vaults {
		if seenVault[v.ID] {
			r.errorf(CodeDuplicateVaultID, "vault id %d appears more than once", v.ID)
		}
		seenVault[v.ID] = true
		if v.Active() {
			if seenName[v.Name] {
				r.errorf(CodeDuplicateVaultName, "vault name %q is held by more than one active vault", v.Name)
			}
			seenName[v.Name] = true
		}
		if v.ID > maxVaultID {
			maxVaultID = v.ID
		}
	}
	if counters.VaultID < maxVaultID {
		r.errorf(CodeVaultCounterBehind, "vault counter %d is behind max vault id %d", counters.VaultID, maxVaultID)
	}
}

// (d) per-entry cross-check against the filesystem.
func (s *Service) checkEntriesAgainstFilesystem(r *Report, entries []*model.Entry) {
	for _, e := range entries {
		restorePath := filepath.Join(e.Directory, e.Item)
		switch e.Status {
		case model.ItemArchived:
			_, object, ok, err := s.store.StorageLocation(e)
			if err != nil {
				r.errorf(CodeMissingArchiveObject, "archive #%d: %v", e.ID, err)
				continue
			}
			if !ok {
				r.errorf(CodeMissingArchiveObject, "archive #%d: object %s is missing", e.ID, object)
				continue
			}
			info, err := os.Lstat(object)
			if err == nil && info.IsDir() != e.IsDir {
				r.errorf(CodeTypeMismatch, "archive #%d: %s is a %s but was archived as a %s",
					e.ID, object, typeLabel(info.IsDir()), typeLabel(e.IsDir))
			}
			if _, err := os.Lstat(restorePath); err == nil {
				r.warnf(CodeRestoreTargetOccupied, "archive #%d: restore target %s is already occupied", e.ID, restorePath)
			}
		case model.ItemRestored:
			slot := s.store.SlotPath(e.VaultID, e.ID)
			if _, err := os.Lstat(slot); err == nil {
				r.warnf(CodeOrphanSlot, "archive #%d is restored but slot %s still exists", e.ID, slot)
			}
			info, err := os.Lstat(restorePath)
			if err != nil {
				r.warnf(CodeRestoredObjectMissing, "archive #%d: restored object %s is missing", e.ID, restorePath)
			} else if info.IsDir() != e.IsDir {
				r.warnf(CodeRestoredTypeMismatch, "archive #%d: %s is a %s but was archived as a %s",
					e.ID, restorePath, typeLabel(info.IsDir()), typeLabel(e.IsDir))
			}
		}
	}
}

// (e) walk the vaults tree and flag everything the metadata does not
// account for.
func (s *Service) checkVaultsTree(r *Report, entries []*model.Entry, vaults []*model.Vault) {
	vaultByID := make(map[int64]*model.Vault, len(vaults))
	for _, v := range vaults {
		vaultByID[v.ID] = v
	}
	archived := make(map[int64]*model.Entry, len(entries))
	for _, e := range entries {
		if e.Status == model.ItemArchived {
			archived[e.ID] = e
		}
	}

	dirs, err := os.ReadDir(s.store.VaultsRoot())
	if err != nil {
		// Absence is already reported by the required-path pass.
		return
	}
	for _, d := range dirs {
		vaultID, err := strconv.ParseInt(d.Name(), 10, 64)
		if err != nil || vaultID < 0 {
			r.warnf(CodeNonNumericVaultDir, "unexpected entry in vaults tree: %s", d.Name())
			continue
		}
		if !d.IsDir() {
			r.errorf(CodeInvalidSlot, "vault path %s is not a directory", filepath.Join(s.store.VaultsRoot(), d.Name()))
			continue
		}
		if _, known := vaultByID[vaultID]; !known {
			r.warnf(CodeUnknownVaultDir, "vault directory %d has no matching metadata record", vaultID)
			continue
		}
		s.checkSlotDirs(r, vaultID, archived)
	}
}

func (s *Service) checkSlotDirs(r *Report, vaultID int64, archived map[int64]*model.Entry) {
	slots, err := os.ReadDir(s.store.VaultDir(vaultID))
	if err != nil {
		return
	}
	for _, d := range slots {
		archiveID, err := strconv.ParseInt(d.Name(), 10, 64)
		if err != nil || archiveID <= 0 {
			r.warnf(CodeNonNumericSlotDir, "unexpected entry in vault %d: %s", vaultID, d.Name())
			continue
		}
		slotPath := s.store.SlotPath(vaultID, archiveID)
		if !d.IsDir() {
			r.errorf(CodeInvalidSlot, "slot %s is not a directory", slotPath)
			continue
		}
		e, ok := archived[archiveID]
		if !ok || e.VaultID != vaultID {
			r.warnf(CodeOrphanArchiveObject, "slot %s has no matching archived entry", slotPath)
		}
	}
}

// (f) every active vault's directory must exist.
func (s *Service) checkVaultDirs(r *Report, vaults []*model.Vault) {
	for _, v := range vaults {
		if !v.Active() {
			continue
		}
		dir := s.store.VaultDir(v.ID)
		if info, err := os.Lstat(dir); err != nil || !info.IsDir() {
			r.errorf(CodeMissingVaultDir, "vault %s (#%d) has no directory at %s", v.Name, v.ID, dir)
		}
	}
}

// (g) log-id uniqueness and counter monotonicity. Returns the number of
// records inspected.
func (s *Service) checkLogs(r *Report, counters *model.Counters) int {
	records, err := audit.History(s.store, 0)
	if err != nil {
		r.errorf(CodeLogReadFailed, "reading logs: %v", err)
		return 0
	}
	var maxLogID int64
	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			r.errorf(CodeDuplicateLogID, "log id %d appears more than once", rec.ID)
		}
		seen[rec.ID] = true
		if rec.ID > maxLogID {
			maxLogID = rec.ID
		}
	}
	if counters.LogID < maxLogID {
		r.errorf(CodeLogCounterBehind, "log counter %d is behind max log id %d", counters.LogID, maxLogID)
	}
	return len(records)
}

func typeLabel(isDir bool) string {
	if isDir {
		return "directory"
	}
	return "file"
}
