package arv

import (
	"fmt"
	"strings"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// ResolveCdTarget resolves a cd target of the form "<archiveId>" or
// "<vaultRef>/<archiveId>" to the absolute slot path of an archived
// entry. When a vault reference is given it must match the entry's
// actual vault; a mismatch is an error, never a silent redirect. The
// only side effect is one audit record.
func (s *Service) ResolveCdTarget(target string) (string, error) {
	vaultRef := ""
	idStr := target
	if i := strings.LastIndex(target, "/"); i >= 0 {
		vaultRef = target[:i]
		idStr = target[i+1:]
	}

	id, err := ParseArchiveID(idStr)
	if err != nil {
		return "", err
	}

	e, err := s.store.FindEntry(id)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", fmt.Errorf("archive #%d does not exist", id)
	}
	if e.Status != model.ItemArchived {
		return "", fmt.Errorf("archive #%d is restored and has no slot", id)
	}

	if vaultRef != "" {
		v, err := s.store.ResolveVault(vaultRef, store.ResolveOptions{})
		if err != nil {
			return "", err
		}
		if v.ID != e.VaultID {
			return "", fmt.Errorf("archive #%d is not in vault %q", id, v.Name)
		}
	}

	slot, _, ok, err := s.store.StorageLocation(e)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("slot for archive #%d is missing or invalid; run check to inspect the store", id)
	}

	op := s.op("cd", "", []string{target}, nil)
	msg := fmt.Sprintf("resolved #%d to %s", id, slot)
	if err := s.audit.Log(model.LevelInfo, op, msg, model.Refs{ArchiveID: id, VaultID: e.VaultID}); err != nil {
		return "", err
	}
	return slot, nil
}
