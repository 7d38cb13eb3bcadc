package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment variables win", func(t *testing.T) {
		t.Setenv("ARV_CONFIG_PATH", "/custom/arv.toml")
		t.Setenv("ARV_HOME", "/custom/data")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/custom/arv.toml" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/custom/data" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
		if defaults["store_root"] != filepath.Join("/custom/data", "store") {
			t.Errorf("store_root = %q", defaults["store_root"])
		}
		if defaults["log_dir"] != filepath.Join("/custom/data", "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})

	t.Run("falls back to home-relative paths", func(t *testing.T) {
		t.Setenv("ARV_CONFIG_PATH", "")
		t.Setenv("ARV_HOME", "")
		t.Setenv("HOME", "/home/tester")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != filepath.Join("/home/tester", ".config", "arv.toml") {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != filepath.Join("/home/tester", ".local", "share", "arv") {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
	})
}
