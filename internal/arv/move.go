package arv

import (
	"fmt"
	"os"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// Move relocates archived objects into another vault, keeping their
// slot names (ids) unchanged. Pre-validation covers the whole batch and
// fails fast on the first violation; only then does the mutation pass
// run, collecting per-item outcomes.
func (s *Service) Move(ids []int64, vaultRef string) (*Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("nothing to move: no ids given")
	}

	dest, err := s.store.ResolveVault(vaultRef, store.ResolveOptions{IncludeRemoved: true})
	if err != nil {
		return nil, err
	}
	if !dest.Active() {
		return nil, fmt.Errorf("vault %q is removed; recover it before moving into it", dest.Name)
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
			return nil, fmt.Errorf("archive #%d is restored and has no slot to move", id)
		}
		if e.VaultID == dest.ID {
			return nil, fmt.Errorf("archive #%d is already in vault %q", id, dest.Name)
		}
		_, _, ok, err := s.store.StorageLocation(e)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("archive #%d has no valid slot; run check to inspect the store", id)
		}
		destSlot := s.store.SlotPath(dest.ID, e.ID)
		if _, err := os.Lstat(destSlot); err == nil {
			return nil, fmt.Errorf("destination slot already occupied: %s", destSlot)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking destination slot: %w", err)
		}
		entries = append(entries, e)
	}

	if err := os.MkdirAll(s.store.VaultDir(dest.ID), 0755); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}

	op := s.op("move", "", idStrings(ids), map[string]string{"vault": dest.Name})
	result := &Result{}
	changed := false
	for _, e := range entries {
		srcSlot := s.store.SlotPath(e.VaultID, e.ID)
		destSlot := s.store.SlotPath(dest.ID, e.ID)
		if err := os.Rename(srcSlot, destSlot); err != nil {
			result.fail(e.ID, e.Item, err.Error())
			continue
		}

		e.VaultID = dest.ID
		changed = true
		msg := fmt.Sprintf("moved #%d to vault %s", e.ID, dest.Name)
		if err := s.audit.Log(model.LevelInfo, op, msg, model.Refs{ArchiveID: e.ID, VaultID: dest.ID}); err != nil {
			if changed {
				if saveErr := s.store.SaveEntries(); saveErr != nil {
					s.logger.Error("saving entries after audit failure", "err", saveErr)
				}
			}
			return result, err
		}
		s.logger.Info("item moved", "id", e.ID, "vault", dest.Name)
		result.ok(e.ID, e.Item, msg)
	}

	if changed {
		if err := s.store.SaveEntries(); err != nil {
			return result, fmt.Errorf("saving entries: %w", err)
		}
	}
	return result, nil
}
