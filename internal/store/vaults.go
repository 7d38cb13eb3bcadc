package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"arv-go/internal/model"
)

// ErrVaultNotFound is returned by ResolveVault when no vault matches
// the given reference.
var ErrVaultNotFound = errors.New("vault not found")

// ResolveOptions controls vault reference resolution.
type ResolveOptions struct {
	// IncludeRemoved allows the reference to match a removed vault.
	IncludeRemoved bool
	// FallbackToCurrent resolves an empty reference to the config's
	// current vault instead of failing.
	FallbackToCurrent bool
}

// Vaults returns the cached vault set, loading it on first use. The
// default vault (id 0) is always present and always protected, even
// when vaults.jsonl is empty or its record has been tampered with.
// force bypasses the cache.
func (s *Store) Vaults(force bool) ([]*model.Vault, error) {
	if s.vaults != nil && !force {
		return s.vaults, nil
	}
	var vaults []*model.Vault
	err := readLines(filepath.Join(s.root, vaultsFile), func(line []byte) {
		var v model.Vault
		if json.Unmarshal(line, &v) != nil {
			return
		}
		if !sanitizeVault(&v) {
			return
		}
		vaults = append(vaults, &v)
	})
	if err != nil {
		return nil, err
	}

	// Synthesize the default vault if the file carries no record for it.
	hasDefault := false
	for _, v := range vaults {
		if v.ID == model.DefaultVaultID {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		vaults = append([]*model.Vault{{
			ID:     model.DefaultVaultID,
			Name:   model.DefaultVaultName,
			Status: model.VaultProtected,
		}}, vaults...)
	}

	s.vaults = vaults
	return vaults, nil
}

// SaveVaults rewrites vaults.jsonl from the cached vault set.
func (s *Store) SaveVaults() error {
	if s.vaults == nil {
		if _, err := s.Vaults(false); err != nil {
			return err
		}
	}
	return writeLines(filepath.Join(s.root, vaultsFile), s.vaults)
}

// AppendVault adds one vault to the cache and appends its record to
// vaults.jsonl.
func (s *Store) AppendVault(v *model.Vault) error {
	if _, err := s.Vaults(false); err != nil {
		return err
	}
	if err := appendLine(filepath.Join(s.root, vaultsFile), v); err != nil {
		return err
	}
	s.vaults = append(s.vaults, v)
	return nil
}

// FindVault returns the cached vault with the given id, or nil.
func (s *Store) FindVault(id int64) (*model.Vault, error) {
	vaults, err := s.Vaults(false)
	if err != nil {
		return nil, err
	}
	for _, v := range vaults {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

// ResolveVault resolves a vault reference: a vault id, a numeric
// string, or a vault name. With opts.FallbackToCurrent an empty
// reference resolves to the config's current vault. Removed vaults are
// invisible unless opts.IncludeRemoved is set.
func (s *Store) ResolveVault(ref string, opts ResolveOptions) (*model.Vault, error) {
	vaults, err := s.Vaults(false)
	if err != nil {
		return nil, err
	}

	if ref == "" {
		if !opts.FallbackToCurrent {
			return nil, fmt.Errorf("%w: empty vault reference", ErrVaultNotFound)
		}
		cfg, err := s.Config(false)
		if err != nil {
			return nil, err
		}
		ref = strconv.FormatInt(cfg.CurrentVaultID, 10)
	}

	var match *model.Vault
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id >= 0 {
		for _, v := range vaults {
			if v.ID == id {
				match = v
				break
			}
		}
	} else {
		// Only one active vault may hold a name, but removed vaults can
		// share it; an active match always wins.
		for _, v := range vaults {
			if v.Name == ref && v.Active() {
				match = v
				break
			}
		}
		if match == nil && opts.IncludeRemoved {
			for _, v := range vaults {
				if v.Name == ref {
					match = v
					break
				}
			}
		}
	}

	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrVaultNotFound, ref)
	}
	if match.Status == model.VaultRemoved && !opts.IncludeRemoved {
		return nil, fmt.Errorf("%w: %q is removed", ErrVaultNotFound, ref)
	}
	return match, nil
}

// sanitizeVault normalizes a decoded vault record in place, returning
// false when the record must be dropped. The protected status and the
// reserved name are forced for the default vault and stripped from
// everything else.
func sanitizeVault(v *model.Vault) bool {
	if v.ID < 0 {
		return false
	}
	if v.ID == model.DefaultVaultID {
		v.Name = model.DefaultVaultName
		v.Status = model.VaultProtected
		return true
	}
	if v.Name == "" {
		return false
	}
	if !v.Status.Valid() || v.Status == model.VaultProtected {
		v.Status = model.VaultRemoved
	}
	return true
}
