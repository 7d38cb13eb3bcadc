package arv_test

import (
	"errors"
	"os"
	"testing"

	"arv-go/internal/arv"
	"arv-go/internal/model"
	"arv-go/internal/testutil"
)

func TestService_CreateVault(t *testing.T) {
	t.Run("creates a vault with its directory", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)

		v, err := svc.CreateVault("work", "client projects", false, false)
		if err != nil {
			t.Fatalf("CreateVault() error = %v", err)
		}
		if v.ID != 1 || v.Status != model.VaultValid {
			t.Errorf("vault = %+v", v)
		}
		if info, err := os.Stat(st.VaultDir(v.ID)); err != nil || !info.IsDir() {
			t.Errorf("vault directory not created: %v", err)
		}

		vaults, _ := st.Vaults(true)
		if len(vaults) != 2 {
			t.Errorf("persisted vaults = %d, want 2", len(vaults))
		}
	})

	t.Run("activate makes the vault current", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)

		v, err := svc.CreateVault("work", "", true, false)
		if err != nil {
			t.Fatalf("CreateVault() error = %v", err)
		}
		cfg, _ := st.Config(true)
		if cfg.CurrentVaultID != v.ID {
			t.Errorf("CurrentVaultID = %d, want %d", cfg.CurrentVaultID, v.ID)
		}
	})

	t.Run("rejects bad names", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)

		if _, err := svc.CreateVault("", "", false, false); err == nil {
			t.Error("expected error for empty name")
		}
		if _, err := svc.CreateVault(model.DefaultVaultName, "", false, false); err == nil {
			t.Error("expected error for reserved name")
		}
	})

	t.Run("rejects an active duplicate name", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)

		if _, err := svc.CreateVault("work", "", false, false); err == nil {
			t.Error("expected error for duplicate name")
		}
	})

	t.Run("removed namesake blocks creation unless recovering", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		original, _ := svc.CreateVault("work", "", false, false)
		if _, _, err := svc.RemoveVault("work"); err != nil {
			t.Fatalf("RemoveVault() error = %v", err)
		}

		_, err := svc.CreateVault("work", "", false, false)
		if !errors.Is(err, arv.ErrRemovedVaultExists) {
			t.Fatalf("error = %v, want ErrRemovedVaultExists", err)
		}

		v, err := svc.CreateVault("work", "", false, true)
		if err != nil {
			t.Fatalf("CreateVault(recover) error = %v", err)
		}
		if v.ID != original.ID {
			t.Errorf("recovered vault id = %d, want the original %d", v.ID, original.ID)
		}
		if v.Status != model.VaultValid {
			t.Errorf("Status = %q, want valid", v.Status)
		}
	})
}

func TestService_RemoveVault(t *testing.T) {
	t.Run("relocates held archives into the default vault", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		work, _ := svc.CreateVault("work", "", false, false)
		workDir := t.TempDir()
		id1, _ := archiveFile(t, svc, workDir, "a.txt", "a", "work")
		id2, _ := archiveFile(t, svc, workDir, "b.txt", "b", "work")

		v, moved, err := svc.RemoveVault("work")
		if err != nil {
			t.Fatalf("RemoveVault() error = %v", err)
		}
		if moved != 2 {
			t.Errorf("moved = %d, want 2", moved)
		}
		if v.Status != model.VaultRemoved {
			t.Errorf("Status = %q, want removed", v.Status)
		}

		for _, id := range []int64{id1, id2} {
			if _, err := os.Lstat(st.SlotPath(model.DefaultVaultID, id)); err != nil {
				t.Errorf("archive #%d not relocated: %v", id, err)
			}
			if _, err := os.Lstat(st.SlotPath(work.ID, id)); !os.IsNotExist(err) {
				t.Errorf("archive #%d still in removed vault: %v", id, err)
			}
			e, _ := st.FindEntry(id)
			if e.VaultID != model.DefaultVaultID {
				t.Errorf("archive #%d VaultID = %d, want 0", id, e.VaultID)
			}
		}
	})

	t.Run("resets the current pointer when removing the current vault", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		svc.CreateVault("work", "", true, false)

		if _, _, err := svc.RemoveVault("work"); err != nil {
			t.Fatalf("RemoveVault() error = %v", err)
		}
		cfg, _ := st.Config(true)
		if cfg.CurrentVaultID != model.DefaultVaultID {
			t.Errorf("CurrentVaultID = %d, want 0", cfg.CurrentVaultID)
		}
	})

	t.Run("default vault is protected", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		if _, _, err := svc.RemoveVault(model.DefaultVaultName); !errors.Is(err, arv.ErrVaultProtected) {
			t.Errorf("error = %v, want ErrVaultProtected", err)
		}
	})

	t.Run("already removed vault is rejected", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)
		svc.RemoveVault("work")

		if _, _, err := svc.RemoveVault("work"); err == nil {
			t.Error("expected error for already removed vault")
		}
	})

	t.Run("aborts when a default slot is occupied", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)
		id, _ := archiveFile(t, svc, t.TempDir(), "a.txt", "a", "work")

		// A stray directory blocks the relocation target.
		testutil.MkDir(t, st.SlotPath(model.DefaultVaultID, id))

		if _, _, err := svc.RemoveVault("work"); err == nil {
			t.Fatal("RemoveVault() expected error for occupied default slot")
		}
		vaults, _ := st.Vaults(true)
		for _, v := range vaults {
			if v.Name == "work" && v.Status != model.VaultValid {
				t.Errorf("vault flipped to %q despite abort", v.Status)
			}
		}
	})
}

func TestService_RecoverVault(t *testing.T) {
	t.Run("flips a removed vault back to valid", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		v, _ := svc.CreateVault("work", "", false, false)
		svc.RemoveVault("work")
		os.RemoveAll(st.VaultDir(v.ID))

		got, err := svc.RecoverVault("work")
		if err != nil {
			t.Fatalf("RecoverVault() error = %v", err)
		}
		if got.Status != model.VaultValid {
			t.Errorf("Status = %q, want valid", got.Status)
		}
		if info, err := os.Stat(st.VaultDir(v.ID)); err != nil || !info.IsDir() {
			t.Errorf("vault directory not recreated: %v", err)
		}
	})

	t.Run("rejects a vault that is not removed", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)

		if _, err := svc.RecoverVault("work"); err == nil {
			t.Error("expected error for active vault")
		}
	})

	t.Run("rejects recovery when the name was taken", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		first, _ := svc.CreateVault("work", "", false, false)
		svc.RemoveVault("work")
		svc.CreateVault("temp", "", false, false)
		if _, err := svc.RenameVault("temp", "work"); err != nil {
			t.Fatalf("RenameVault() error = %v", err)
		}

		if _, err := svc.RecoverVault(formatID(first.ID)); err == nil {
			t.Error("expected error when the name is taken by an active vault")
		}
	})
}

func TestService_RenameVault(t *testing.T) {
	t.Run("renames and persists", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)

		v, err := svc.RenameVault("work", "projects")
		if err != nil {
			t.Fatalf("RenameVault() error = %v", err)
		}
		if v.Name != "projects" {
			t.Errorf("Name = %q", v.Name)
		}
		vaults, _ := st.Vaults(true)
		found := false
		for _, got := range vaults {
			if got.ID == v.ID && got.Name == "projects" {
				found = true
			}
		}
		if !found {
			t.Error("rename not persisted")
		}
	})

	t.Run("rejects collisions and the default vault", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)
		svc.CreateVault("other", "", false, false)

		if _, err := svc.RenameVault("other", "work"); err == nil {
			t.Error("expected error for name collision")
		}
		if _, err := svc.RenameVault(model.DefaultVaultName, "something"); !errors.Is(err, arv.ErrVaultProtected) {
			t.Errorf("error = %v, want ErrVaultProtected", err)
		}
		if _, err := svc.RenameVault("work", model.DefaultVaultName); err == nil {
			t.Error("expected error for reserved name")
		}
	})
}

func TestService_UseVault(t *testing.T) {
	t.Run("sets the current pointer", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		v, _ := svc.CreateVault("work", "", false, false)

		if _, err := svc.UseVault("work"); err != nil {
			t.Fatalf("UseVault() error = %v", err)
		}
		cfg, _ := st.Config(true)
		if cfg.CurrentVaultID != v.ID {
			t.Errorf("CurrentVaultID = %d, want %d", cfg.CurrentVaultID, v.ID)
		}
	})

	t.Run("rejects removed vaults", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		svc.CreateVault("work", "", false, false)
		svc.RemoveVault("work")

		if _, err := svc.UseVault("work"); err == nil {
			t.Error("expected error for removed vault")
		}
	})
}

func TestService_ListVaults(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	svc.CreateVault("work", "", false, false)
	svc.CreateVault("old", "", false, false)
	svc.RemoveVault("old")

	active, err := svc.ListVaults(false)
	if err != nil {
		t.Fatalf("ListVaults() error = %v", err)
	}
	if len(active) != 2 { // default + work
		t.Errorf("active vaults = %d, want 2", len(active))
	}

	all, _ := svc.ListVaults(true)
	if len(all) != 3 {
		t.Errorf("all vaults = %d, want 3", len(all))
	}
}

func TestService_ListEntries(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	svc.CreateVault("work", "", false, false)
	workDir := t.TempDir()
	archiveFile(t, svc, workDir, "a.txt", "a", "")
	archiveFile(t, svc, workDir, "b.txt", "b", "work")

	all, err := svc.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all entries = %d, want 2", len(all))
	}

	filtered, err := svc.ListEntries("work")
	if err != nil {
		t.Fatalf("ListEntries(work) error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].Item != "b.txt" {
		t.Errorf("filtered = %+v", filtered)
	}
}
