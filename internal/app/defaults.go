package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ARV_CONFIG_PATH: config file location (default: ~/.config/arv.toml)
//   - ARV_HOME: base directory for arv data (default: ~/.local/share/arv)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"store_root":  filepath.Join(baseDir, "store"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking ARV_CONFIG_PATH env var first,
// then falling back to the default ~/.config/arv.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("ARV_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "arv.toml"), nil
}

// getBaseDir returns the base directory for arv data, checking ARV_HOME env var first,
// then falling back to the XDG default ~/.local/share/arv.
func getBaseDir() (string, error) {
	if path := os.Getenv("ARV_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "arv"), nil
}
