package arv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"arv-go/internal/model"
)

// Restore moves archived objects back to their original locations and
// flips their status. The whole batch is validated first: every id must
// exist and be archived, otherwise the call aborts before any
// filesystem change. Per-item filesystem failures are collected; the
// updated entry set is committed once after the loop.
func (s *Service) Restore(ids []int64) (*Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("nothing to restore: no ids given")
	}

	entries := make([]*model.Entry, 0, len(ids))
	for _, id := range ids {
		e, err := s.store.FindEntry(id)
		if err != nil {
			return nil, err
		}
		if e == nil {
			return nil, fmt.Errorf("archive #%d does not exist", id)
		}
		if e.Status != model.ItemArchived {
			return nil, fmt.Errorf("archive #%d is already restored", id)
		}
		entries = append(entries, e)
	}

	op := s.op("restore", "", idStrings(ids), nil)
	result := &Result{}
	for _, e := range entries {
		slot, object, ok, err := s.store.StorageLocation(e)
		if err != nil {
			return result, err
		}
		if !ok {
			result.fail(e.ID, e.Item, fmt.Sprintf("slot %s is missing or invalid", slot))
			continue
		}

		dest := filepath.Join(e.Directory, e.Item)
		if _, err := os.Lstat(dest); err == nil {
			result.fail(e.ID, e.Item, fmt.Sprintf("restore target already exists: %s", dest))
			continue
		} else if !os.IsNotExist(err) {
			result.fail(e.ID, e.Item, fmt.Sprintf("checking restore target: %v", err))
			continue
		}

		if err := os.MkdirAll(e.Directory, 0755); err != nil {
			result.fail(e.ID, e.Item, fmt.Sprintf("creating restore directory: %v", err))
			continue
		}
		if err := os.Rename(object, dest); err != nil {
			result.fail(e.ID, e.Item, err.Error())
			continue
		}
		if err := os.Remove(slot); err != nil {
			// The object is restored either way; a lingering slot is a
			// checker finding, not a restore failure.
			s.logger.Warn("could not remove emptied slot", "slot", slot, "err", err)
		}

		e.Status = model.ItemRestored
		msg := fmt.Sprintf("restored #%d to %s", e.ID, dest)
		if err := s.audit.Log(model.LevelInfo, op, msg, model.Refs{ArchiveID: e.ID, VaultID: e.VaultID}); err != nil {
			// The object already moved; persist the status flip so the
			// entry set keeps matching the filesystem, then surface the
			// audit failure.
			if saveErr := s.store.SaveEntries(); saveErr != nil {
				s.logger.Error("saving entries after audit failure", "err", saveErr)
			}
			return result, err
		}
		s.logger.Info("item restored", "id", e.ID, "dest", dest)
		result.ok(e.ID, e.Item, msg)
	}

	// Single batch commit of the entry set, independent of per-item
	// filesystem outcomes.
	if err := s.store.SaveEntries(); err != nil {
		return result, fmt.Errorf("saving entries: %w", err)
	}
	return result, nil
}

func idStrings(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}
