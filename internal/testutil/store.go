package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"arv-go/internal/store"
)

// NewTestStore creates an initialized metadata store under a temp
// directory. The directory is cleaned up when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	root := filepath.Join(t.TempDir(), "store")
	st, err := store.Open(root)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	return st
}

// WriteFile creates a file with the given content, creating parent
// directories as needed.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating parent directory: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// MkDir creates a directory, parents included.
func MkDir(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
}
