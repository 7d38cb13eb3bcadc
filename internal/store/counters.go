package store

import (
	"fmt"
	"os"
	"path/filepath"

	"arv-go/internal/model"
)

// Counter names one of the three persisted monotonic id sources.
type Counter string

const (
	CounterArchive Counter = "archiveId"
	CounterVault   Counter = "vaultId"
	CounterLog     Counter = "logId"
)

// Counters returns the cached counters document, loading it on first
// use. force bypasses the cache.
func (s *Store) Counters(force bool) (*model.Counters, error) {
	if s.counters != nil && !force {
		return s.counters, nil
	}
	c := &model.Counters{}
	err := readDocument(filepath.Join(s.root, countersFile), c)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sanitizeCounters(c)
	s.counters = c
	return c, nil
}

// SaveCounters rewrites the counters document from the cache.
func (s *Store) SaveCounters() error {
	if s.counters == nil {
		if _, err := s.Counters(false); err != nil {
			return err
		}
	}
	return writeDocument(filepath.Join(s.root, countersFile), s.counters)
}

// NextID increments the named counter, persists the counters document,
// and returns the new value. The document is flushed before the caller
// can write any record consuming the id, so an issued id is never
// reissued even if the record write fails afterwards.
func (s *Store) NextID(counter Counter) (int64, error) {
	c, err := s.Counters(false)
	if err != nil {
		return 0, err
	}

	var slot *int64
	switch counter {
	case CounterArchive:
		slot = &c.ArchiveID
	case CounterVault:
		slot = &c.VaultID
	case CounterLog:
		slot = &c.LogID
	default:
		return 0, fmt.Errorf("unknown counter %q", counter)
	}

	*slot++
	if err := s.SaveCounters(); err != nil {
		*slot--
		return 0, fmt.Errorf("persisting counter %s: %w", counter, err)
	}
	return *slot, nil
}

func sanitizeCounters(c *model.Counters) {
	if c.ArchiveID < 0 {
		c.ArchiveID = 0
	}
	if c.VaultID < 0 {
		c.VaultID = 0
	}
	if c.LogID < 0 {
		c.LogID = 0
	}
}
