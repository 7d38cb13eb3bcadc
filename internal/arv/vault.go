package arv

import (
	"fmt"
	"os"
	"time"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// CreateVault creates a new vault. If a removed vault already holds the
// name, the call fails with ErrRemovedVaultExists unless recoverRemoved
// is set, in which case the removed vault is reactivated instead of a
// new one being created. activate makes the vault current.
func (s *Service) CreateVault(name, remark string, activate, recoverRemoved bool) (*model.Vault, error) {
	if err := validateVaultName(name); err != nil {
		return nil, err
	}

	vaults, err := s.store.Vaults(false)
	if err != nil {
		return nil, err
	}
	var removed *model.Vault
	for _, v := range vaults {
		if v.Name != name {
			continue
		}
		if v.Active() {
			return nil, fmt.Errorf("vault %q already exists", name)
		}
		if removed == nil {
			removed = v
		}
	}

	op := s.op("vault", "create", []string{name}, nil)

	if removed != nil {
		if !recoverRemoved {
			return nil, fmt.Errorf("%w: %q", ErrRemovedVaultExists, name)
		}
		if err := s.reactivateVault(removed); err != nil {
			return nil, err
		}
		if activate {
			if err := s.setCurrentVault(removed.ID); err != nil {
				return nil, err
			}
		}
		msg := fmt.Sprintf("recovered vault %s (#%d) in place of creating it", removed.Name, removed.ID)
		if err := s.audit.Log(model.LevelInfo, op, msg, model.Refs{VaultID: removed.ID}); err != nil {
			return nil, err
		}
		return removed, nil
	}

	id, err := s.store.NextID(store.CounterVault)
	if err != nil {
		return nil, fmt.Errorf("allocating vault id: %w", err)
	}
	v := &model.Vault{
		ID:        id,
		Name:      name,
		Remark:    remark,
		CreatedAt: s.clock.Now().Format(time.RFC3339),
		Status:    model.VaultValid,
	}
	if err := os.MkdirAll(s.store.VaultDir(id), 0755); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}
	if err := s.store.AppendVault(v); err != nil {
		return nil, err
	}
	if activate {
		if err := s.setCurrentVault(id); err != nil {
			return nil, err
		}
	}
	if err := s.audit.Log(model.LevelInfo, op, fmt.Sprintf("created vault %s (#%d)", name, id), model.Refs{VaultID: id}); err != nil {
		return nil, err
	}
	s.logger.Info("vault created", "id", id, "name", name)
	return v, nil
}

// RemoveVault soft-deletes a vault. Every archived entry it holds is
// first validated and then physically relocated into the default vault;
// only after all relocations succeed is the vault flipped to removed.
// The default vault can never be removed.
func (s *Service) RemoveVault(ref string) (*model.Vault, int, error) {
	v, err := s.store.ResolveVault(ref, store.ResolveOptions{IncludeRemoved: true})
	if err != nil {
		return nil, 0, err
	}
	if v.Protected() {
		return nil, 0, fmt.Errorf("%w: cannot remove vault %q", ErrVaultProtected, v.Name)
	}
	if v.Status == model.VaultRemoved {
		return nil, 0, fmt.Errorf("vault %q is already removed", v.Name)
	}

	entries, err := s.store.Entries(false)
	if err != nil {
		return nil, 0, err
	}
	var held []*model.Entry
	for _, e := range entries {
		if e.VaultID == v.ID && e.Status == model.ItemArchived {
			held = append(held, e)
		}
	}

	// Validate every relocation before touching anything.
	for _, e := range held {
		_, _, ok, err := s.store.StorageLocation(e)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, fmt.Errorf("archive #%d has no valid slot; run check to inspect the store", e.ID)
		}
		destSlot := s.store.SlotPath(model.DefaultVaultID, e.ID)
		if _, err := os.Lstat(destSlot); err == nil {
			return nil, 0, fmt.Errorf("default vault slot already occupied: %s", destSlot)
		} else if !os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("checking destination slot: %w", err)
		}
	}

	if err := os.MkdirAll(s.store.VaultDir(model.DefaultVaultID), 0755); err != nil {
		return nil, 0, fmt.Errorf("creating default vault directory: %w", err)
	}

	moved := 0
	for _, e := range held {
		srcSlot := s.store.SlotPath(e.VaultID, e.ID)
		destSlot := s.store.SlotPath(model.DefaultVaultID, e.ID)
		if err := os.Rename(srcSlot, destSlot); err != nil {
			// Persist what already moved so metadata keeps matching the
			// filesystem, then abort; the vault stays valid.
			if moved > 0 {
				if saveErr := s.store.SaveEntries(); saveErr != nil {
					s.logger.Error("saving entries after aborted relocation", "err", saveErr)
				}
			}
			return nil, moved, fmt.Errorf("relocating archive #%d: %w", e.ID, err)
		}
		e.VaultID = model.DefaultVaultID
		moved++
	}
	if moved > 0 {
		if err := s.store.SaveEntries(); err != nil {
			return nil, moved, fmt.Errorf("saving entries: %w", err)
		}
	}

	v.Status = model.VaultRemoved
	if err := s.store.SaveVaults(); err != nil {
		return nil, moved, err
	}

	cfg, err := s.store.Config(false)
	if err != nil {
		return nil, moved, err
	}
	if cfg.CurrentVaultID == v.ID {
		if err := s.setCurrentVault(model.DefaultVaultID); err != nil {
			return nil, moved, err
		}
	}

	op := s.op("vault", "remove", []string{ref}, nil)
	msg := fmt.Sprintf("removed vault %s (#%d), relocated %d archives", v.Name, v.ID, moved)
	if err := s.audit.Log(model.LevelInfo, op, msg, model.Refs{VaultID: v.ID}); err != nil {
		return nil, moved, err
	}
	s.logger.Info("vault removed", "id", v.ID, "name", v.Name, "relocated", moved)
	return v, moved, nil
}

// RecoverVault flips a removed vault back to valid, recreating its
// directory if it has disappeared.
func (s *Service) RecoverVault(ref string) (*model.Vault, error) {
	v, err := s.store.ResolveVault(ref, store.ResolveOptions{IncludeRemoved: true})
	if err != nil {
		return nil, err
	}
	if v.Status != model.VaultRemoved {
		return nil, fmt.Errorf("vault %q is not removed", v.Name)
	}

	// Another vault may have taken the name while this one was removed.
	vaults, err := s.store.Vaults(false)
	if err != nil {
		return nil, err
	}
	for _, other := range vaults {
		if other.ID != v.ID && other.Name == v.Name && other.Active() {
			return nil, fmt.Errorf("vault name %q is taken; rename the active vault first", v.Name)
		}
	}

	if err := s.reactivateVault(v); err != nil {
		return nil, err
	}
	op := s.op("vault", "recover", []string{ref}, nil)
	if err := s.audit.Log(model.LevelInfo, op, fmt.Sprintf("recovered vault %s (#%d)", v.Name, v.ID), model.Refs{VaultID: v.ID}); err != nil {
		return nil, err
	}
	s.logger.Info("vault recovered", "id", v.ID, "name", v.Name)
	return v, nil
}

// RenameVault gives a valid vault a new name. The default vault cannot
// be renamed, and the new name must not collide with any active vault.
func (s *Service) RenameVault(ref, newName string) (*model.Vault, error) {
	v, err := s.store.ResolveVault(ref, store.ResolveOptions{})
	if err != nil {
		return nil, err
	}
	if v.Protected() {
		return nil, fmt.Errorf("%w: cannot rename vault %q", ErrVaultProtected, v.Name)
	}
	if err := validateVaultName(newName); err != nil {
		return nil, err
	}

	vaults, err := s.store.Vaults(false)
	if err != nil {
		return nil, err
	}
	for _, other := range vaults {
		if other.ID != v.ID && other.Name == newName && other.Active() {
			return nil, fmt.Errorf("vault %q already exists", newName)
		}
	}

	oldName := v.Name
	v.Name = newName
	if err := s.store.SaveVaults(); err != nil {
		return nil, err
	}
	op := s.op("vault", "rename", []string{ref, newName}, nil)
	if err := s.audit.Log(model.LevelInfo, op, fmt.Sprintf("renamed vault %s to %s (#%d)", oldName, newName, v.ID), model.Refs{VaultID: v.ID}); err != nil {
		return nil, err
	}
	return v, nil
}

// UseVault sets the config's current-vault pointer. Removed vaults are
// rejected by resolution.
func (s *Service) UseVault(ref string) (*model.Vault, error) {
	v, err := s.store.ResolveVault(ref, store.ResolveOptions{})
	if err != nil {
		return nil, err
	}
	if err := s.setCurrentVault(v.ID); err != nil {
		return nil, err
	}
	op := s.op("vault", "use", []string{ref}, nil)
	if err := s.audit.Log(model.LevelInfo, op, fmt.Sprintf("current vault is now %s (#%d)", v.Name, v.ID), model.Refs{VaultID: v.ID}); err != nil {
		return nil, err
	}
	return v, nil
}

// ListVaults returns all vaults, optionally including removed ones.
// Read-only.
func (s *Service) ListVaults(includeRemoved bool) ([]*model.Vault, error) {
	vaults, err := s.store.Vaults(false)
	if err != nil {
		return nil, err
	}
	if includeRemoved {
		return vaults, nil
	}
	var active []*model.Vault
	for _, v := range vaults {
		if v.Active() {
			active = append(active, v)
		}
	}
	return active, nil
}

// ListEntries returns archive entries, optionally filtered to one
// vault. Read-only.
func (s *Service) ListEntries(vaultRef string) ([]*model.Entry, error) {
	entries, err := s.store.Entries(false)
	if err != nil {
		return nil, err
	}
	if vaultRef == "" {
		return entries, nil
	}
	v, err := s.store.ResolveVault(vaultRef, store.ResolveOptions{IncludeRemoved: true})
	if err != nil {
		return nil, err
	}
	var filtered []*model.Entry
	for _, e := range entries {
		if e.VaultID == v.ID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *Service) reactivateVault(v *model.Vault) error {
	v.Status = model.VaultValid
	if err := os.MkdirAll(s.store.VaultDir(v.ID), 0755); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}
	return s.store.SaveVaults()
}

func (s *Service) setCurrentVault(id int64) error {
	cfg, err := s.store.Config(false)
	if err != nil {
		return err
	}
	cfg.CurrentVaultID = id
	return s.store.SaveConfig()
}

func validateVaultName(name string) error {
	if name == "" {
		return fmt.Errorf("vault name must not be empty")
	}
	if name == model.DefaultVaultName {
		return fmt.Errorf("vault name %q is reserved for the default vault", name)
	}
	return nil
}
