package store

import (
	"os"
	"path/filepath"

	"arv-go/internal/model"
)

// Config returns the cached config document, loading it on first use.
// A missing file yields defaults. force bypasses the cache.
func (s *Store) Config(force bool) (*model.Config, error) {
	if s.config != nil && !force {
		return s.config, nil
	}
	cfg := defaultConfig()
	err := readDocument(filepath.Join(s.root, configFile), cfg)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sanitizeConfig(cfg)
	s.config = cfg
	return cfg, nil
}

// SaveConfig rewrites the config document from the cache.
func (s *Store) SaveConfig() error {
	if s.config == nil {
		if _, err := s.Config(false); err != nil {
			return err
		}
	}
	return writeDocument(filepath.Join(s.root, configFile), s.config)
}

func defaultConfig() *model.Config {
	return &model.Config{
		CurrentVaultID: model.DefaultVaultID,
		UpdateCheck:    model.UpdateCheckConfig{Enabled: true},
		Aliases:        map[string]string{},
	}
}

// sanitizeConfig replaces out-of-range fields with defaults so a
// hand-edited document cannot poison the process.
func sanitizeConfig(cfg *model.Config) {
	if cfg.CurrentVaultID < 0 {
		cfg.CurrentVaultID = model.DefaultVaultID
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	if cfg.UI.PageSize < 0 {
		cfg.UI.PageSize = 0
	}
}
