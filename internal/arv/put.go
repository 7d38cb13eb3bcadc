package arv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// putItem is one pre-validated source path.
type putItem struct {
	raw   string
	abs   string
	base  string
	isDir bool
}

// Put moves the given paths into slots of the target vault. All items
// are validated before anything is mutated; after that each item is
// processed independently, so one failed move never aborts its
// siblings. Each archive id is consumed by exactly one item.
func (s *Service) Put(paths []string, vaultRef, message, remark string) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("nothing to archive: no paths given")
	}

	vault, err := s.store.ResolveVault(vaultRef, store.ResolveOptions{
		IncludeRemoved:    true,
		FallbackToCurrent: true,
	})
	if err != nil {
		return nil, err
	}
	if !vault.Active() {
		return nil, fmt.Errorf("vault %q is removed; recover it before archiving into it", vault.Name)
	}

	if err := os.MkdirAll(s.store.VaultDir(vault.ID), 0755); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}

	items, err := s.validatePutItems(paths)
	if err != nil {
		return nil, err
	}

	// Guard against stray directories occupying the slot paths the ids
	// about to be allocated will map to.
	counters, err := s.store.Counters(false)
	if err != nil {
		return nil, err
	}
	for i := int64(1); i <= int64(len(items)); i++ {
		slot := s.store.SlotPath(vault.ID, counters.ArchiveID+i)
		if _, err := os.Lstat(slot); err == nil {
			return nil, fmt.Errorf("slot %s is already occupied; run check to inspect the store", slot)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking slot %s: %w", slot, err)
		}
	}

	op := s.op("put", "", paths, map[string]string{"vault": vault.Name})
	result := &Result{}
	for _, item := range items {
		id, err := s.store.NextID(store.CounterArchive)
		if err != nil {
			return result, fmt.Errorf("allocating archive id: %w", err)
		}

		slot := s.store.SlotPath(vault.ID, id)
		object := filepath.Join(slot, item.base)
		if err := createForMove(slot, func() error {
			return os.Rename(item.abs, object)
		}); err != nil {
			s.logger.Warn("archive move failed", "path", item.abs, "err", err)
			result.fail(id, item.raw, err.Error())
			continue
		}

		entry := &model.Entry{
			ID:         id,
			VaultID:    vault.ID,
			Item:       item.base,
			Directory:  filepath.Dir(item.abs),
			Status:     model.ItemArchived,
			IsDir:      item.isDir,
			ArchivedAt: s.clock.Now().Format(time.RFC3339),
			Message:    message,
			Remark:     remark,
		}
		if err := s.store.AppendEntry(entry); err != nil {
			// The object is already in the slot but has no record; move
			// it back so metadata and filesystem stay consistent.
			if rbErr := os.Rename(object, item.abs); rbErr == nil {
				os.Remove(slot)
			}
			result.fail(id, item.raw, fmt.Sprintf("recording entry: %v", err))
			continue
		}

		msg := fmt.Sprintf("archived %s as #%d in vault %s", item.base, id, vault.Name)
		if err := s.audit.Log(model.LevelInfo, op, msg, model.Refs{ArchiveID: id, VaultID: vault.ID}); err != nil {
			return result, err
		}

		s.logger.Info("item archived", "id", id, "item", item.base, "vault", vault.Name)
		result.ok(id, item.raw, msg)
	}

	return result, nil
}

// validatePutItems canonicalizes every source path and rejects the
// whole batch on the first violation: a path that does not exist, a
// duplicate canonical path, or a path that is, contains, or lives
// inside the store root.
func (s *Service) validatePutItems(paths []string) ([]putItem, error) {
	items := make([]putItem, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	root := s.store.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	for _, raw := range paths {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", raw, err)
		}
		abs = filepath.Clean(abs)

		info, err := os.Lstat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path does not exist: %s", raw)
			}
			return nil, fmt.Errorf("stat %s: %w", raw, err)
		}

		// Resolve symlinks in the parent so aliased routes to one
		// object canonicalize to the same path. The final element stays
		// unresolved: archiving a symlink moves the link, not its
		// target.
		parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", raw, err)
		}
		abs = filepath.Join(parent, filepath.Base(abs))

		if abs == root || pathWithin(root, abs) || pathWithin(abs, root) {
			return nil, fmt.Errorf("refusing to archive the store's own directory: %s", raw)
		}
		if seen[abs] {
			return nil, fmt.Errorf("duplicate path in batch: %s", raw)
		}
		seen[abs] = true

		items = append(items, putItem{
			raw:   raw,
			abs:   abs,
			base:  filepath.Base(abs),
			isDir: info.IsDir(),
		})
	}
	return items, nil
}

// pathWithin reports whether child is strictly inside parent.
func pathWithin(parent, child string) bool {
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

// ParseArchiveID parses a decimal archive id. Ids are always positive.
func ParseArchiveID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid archive id %q", raw)
	}
	return id, nil
}
