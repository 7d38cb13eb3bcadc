package arv_test

import (
	"errors"
	"os"
	"testing"

	"arv-go/internal/arv"
	"arv-go/internal/audit"
	"arv-go/internal/model"
	"arv-go/internal/store"
	"arv-go/internal/testutil"
)

// brokenAuditor fails every write, standing in for a full disk or a
// permission problem on the logs directory.
type brokenAuditor struct{}

func (brokenAuditor) Log(model.LogLevel, model.Operation, string, model.Refs) error {
	return errors.New("audit log write failed")
}

func TestService_Restore(t *testing.T) {
	t.Run("round trips an archived file", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		workDir := t.TempDir()
		id, src := archiveFile(t, svc, workDir, "report.txt", "quarterly numbers", "")

		result, err := svc.Restore([]int64{id})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Succeeded) != 1 || len(result.Failed) != 0 {
			t.Fatalf("result = %d ok, %d failed", len(result.Succeeded), len(result.Failed))
		}

		data, err := os.ReadFile(src)
		if err != nil || string(data) != "quarterly numbers" {
			t.Errorf("restored content = %q, %v", data, err)
		}
		if _, err := os.Lstat(st.SlotPath(model.DefaultVaultID, id)); !os.IsNotExist(err) {
			t.Errorf("slot still exists after restore: %v", err)
		}

		e, _ := st.FindEntry(id)
		if e.Status != model.ItemRestored {
			t.Errorf("Status = %q, want restored", e.Status)
		}
	})

	t.Run("rejects an already restored id", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		id, _ := archiveFile(t, svc, t.TempDir(), "f.txt", "x", "")

		if _, err := svc.Restore([]int64{id}); err != nil {
			t.Fatalf("first Restore() error = %v", err)
		}
		if _, err := svc.Restore([]int64{id}); err == nil {
			t.Error("second Restore() expected error")
		}
	})

	t.Run("rejects unknown ids before mutating", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		id, _ := archiveFile(t, svc, t.TempDir(), "f.txt", "x", "")

		if _, err := svc.Restore([]int64{id, 999}); err == nil {
			t.Fatal("Restore() expected error for unknown id")
		}
		// Batch aborted before any filesystem change.
		if _, err := os.Lstat(st.SlotPath(model.DefaultVaultID, id)); err != nil {
			t.Errorf("valid item's slot was touched despite abort: %v", err)
		}
		e, _ := st.FindEntry(id)
		if e.Status != model.ItemArchived {
			t.Errorf("Status = %q, want archived", e.Status)
		}
	})

	t.Run("occupied target is a per-item failure", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		workDir := t.TempDir()
		id, src := archiveFile(t, svc, workDir, "f.txt", "original", "")

		// Something new has taken the original path.
		testutil.WriteFile(t, src, []byte("newcomer"))

		result, err := svc.Restore([]int64{id})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Failed) != 1 {
			t.Fatalf("Failed = %d, want 1", len(result.Failed))
		}
		data, _ := os.ReadFile(src)
		if string(data) != "newcomer" {
			t.Errorf("occupying file was overwritten: %q", data)
		}
		e, _ := st.FindEntry(id)
		if e.Status != model.ItemArchived {
			t.Errorf("Status = %q, want archived after failed restore", e.Status)
		}
	})

	t.Run("missing slot is a per-item failure", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		id, _ := archiveFile(t, svc, t.TempDir(), "f.txt", "x", "")

		if err := os.RemoveAll(st.SlotPath(model.DefaultVaultID, id)); err != nil {
			t.Fatalf("removing slot: %v", err)
		}

		result, err := svc.Restore([]int64{id})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Failed) != 1 || len(result.Succeeded) != 0 {
			t.Fatalf("result = %d ok, %d failed", len(result.Succeeded), len(result.Failed))
		}
	})

	t.Run("recreates a vanished origin directory", func(t *testing.T) {
		svc, _ := testutil.NewTestService(t)
		workDir := t.TempDir()
		id, src := archiveFile(t, svc, workDir, "f.txt", "x", "")

		if err := os.RemoveAll(workDir); err != nil {
			t.Fatalf("removing origin dir: %v", err)
		}

		result, err := svc.Restore([]int64{id})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Succeeded) != 1 {
			t.Fatalf("Succeeded = %d, want 1", len(result.Succeeded))
		}
		if _, err := os.Stat(src); err != nil {
			t.Errorf("restored file missing: %v", err)
		}
	})

	t.Run("audit failure still persists the status flip", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		clock := testutil.FixedClock()
		svc := arv.NewService(st, audit.New(st, clock), arv.NewNopLogger(), clock, "test-invocation")
		id, src := archiveFile(t, svc, t.TempDir(), "f.txt", "x", "")

		broken := arv.NewService(st, brokenAuditor{}, arv.NewNopLogger(), clock, "test-invocation")
		if _, err := broken.Restore([]int64{id}); err == nil {
			t.Fatal("Restore() expected the audit error to propagate")
		}

		// The object moved back, so the flip must survive a reload even
		// though the call failed.
		if _, err := os.Stat(src); err != nil {
			t.Errorf("object not restored: %v", err)
		}
		reopened, err := store.Open(st.Root())
		if err != nil {
			t.Fatalf("reopening store: %v", err)
		}
		e, err := reopened.FindEntry(id)
		if err != nil || e == nil {
			t.Fatalf("FindEntry() = %v, %v", e, err)
		}
		if e.Status != model.ItemRestored {
			t.Errorf("persisted status = %q, want restored", e.Status)
		}
	})

	t.Run("mixed batch keeps independent outcomes", func(t *testing.T) {
		svc, st := testutil.NewTestService(t)
		workDir := t.TempDir()
		goodID, goodSrc := archiveFile(t, svc, workDir, "good.txt", "g", "")
		badID, _ := archiveFile(t, svc, workDir, "bad.txt", "b", "")

		if err := os.RemoveAll(st.SlotPath(model.DefaultVaultID, badID)); err != nil {
			t.Fatalf("removing slot: %v", err)
		}

		result, err := svc.Restore([]int64{goodID, badID})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Succeeded) != 1 || len(result.Failed) != 1 {
			t.Fatalf("result = %d ok, %d failed", len(result.Succeeded), len(result.Failed))
		}
		if _, err := os.Stat(goodSrc); err != nil {
			t.Errorf("good item not restored: %v", err)
		}
		// The commit after the loop persisted the good item's flip.
		entries, _ := st.Entries(true)
		for _, e := range entries {
			if e.ID == goodID && e.Status != model.ItemRestored {
				t.Errorf("good entry status = %q after reload", e.Status)
			}
			if e.ID == badID && e.Status != model.ItemArchived {
				t.Errorf("bad entry status = %q after reload", e.Status)
			}
		}
	})
}
