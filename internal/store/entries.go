package store

import (
	"encoding/json"
	"path/filepath"

	"arv-go/internal/model"
)

// Entries returns the cached archive entry set, loading it on first
// use. force bypasses the cache. Unparseable lines and records with a
// non-positive id are dropped; out-of-range fields are replaced with
// defaults.
func (s *Store) Entries(force bool) ([]*model.Entry, error) {
	if s.entries != nil && !force {
		return s.entries, nil
	}
	var entries []*model.Entry
	err := readLines(filepath.Join(s.root, entriesFile), func(line []byte) {
		var e model.Entry
		if json.Unmarshal(line, &e) != nil {
			return
		}
		if !sanitizeEntry(&e) {
			return
		}
		entries = append(entries, &e)
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*model.Entry{}
	}
	s.entries = entries
	return entries, nil
}

// SaveEntries rewrites list.jsonl from the cached entry set.
func (s *Store) SaveEntries() error {
	if s.entries == nil {
		if _, err := s.Entries(false); err != nil {
			return err
		}
	}
	return writeLines(filepath.Join(s.root, entriesFile), s.entries)
}

// AppendEntry adds one entry to the cache and appends its record to
// list.jsonl without rewriting the file.
func (s *Store) AppendEntry(e *model.Entry) error {
	if _, err := s.Entries(false); err != nil {
		return err
	}
	if err := appendLine(filepath.Join(s.root, entriesFile), e); err != nil {
		return err
	}
	s.entries = append(s.entries, e)
	return nil
}

// FindEntry returns the cached entry with the given id, or nil.
func (s *Store) FindEntry(id int64) (*model.Entry, error) {
	entries, err := s.Entries(false)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

// sanitizeEntry normalizes a decoded record in place. It returns false
// when the record is unusable and must be dropped.
func sanitizeEntry(e *model.Entry) bool {
	if e.ID <= 0 || e.Item == "" {
		return false
	}
	if e.VaultID < 0 {
		e.VaultID = model.DefaultVaultID
	}
	// An entry with a corrupt status must not claim a slot, so the
	// safe default is restored.
	if !e.Status.Valid() {
		e.Status = model.ItemRestored
	}
	return true
}
