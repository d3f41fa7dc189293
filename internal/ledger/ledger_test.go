package ledger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/checksum"
	"quill/internal/ledger"
	"quill/internal/staging"
	"quill/internal/state"
)

func writeUnit(t *testing.T, root, contact, unitKey, content string) string {
	t.Helper()
	path := filepath.Join(root, contact, unitKey+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write unit: %v", err)
	}
	return path
}

func newLedger(t *testing.T, root string) (*ledger.Ledger, *state.Store) {
	t.Helper()
	store, err := state.Open(filepath.Join(t.TempDir(), "state.json"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return ledger.New(store, staging.NewDir(root), nil), store
}

func TestRegisterAllDiscoversContactsAndUnits(t *testing.T) {
	root := t.TempDir()
	writeUnit(t, root, "alice", "2026-01-04", "## 09:00 - hi\n\nhi\n")
	writeUnit(t, root, "bob", "2026-01-02", "## 10:00 - yo\n\nyo\n")
	writeUnit(t, root, "bob", "2026-01-03", "## 11:00 - sup\n\nsup\n")

	l, _ := newLedger(t, root)
	summary, err := l.RegisterAll(context.Background())
	if err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if summary.ContactsCreated != 2 || summary.UnitsRegistered != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if diff := cmp.Diff([]string{"2026-01-02", "2026-01-03"}, l.Pending("bob")); diff != "" {
		t.Fatalf("bob pending mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeUnit(t, root, "alice", "2026-01-04", "## 09:00 - hi\n\nhi\n")

	l, _ := newLedger(t, root)
	if _, err := l.RegisterAll(context.Background()); err != nil {
		t.Fatalf("first RegisterAll: %v", err)
	}
	summary, err := l.RegisterAll(context.Background())
	if err != nil {
		t.Fatalf("second RegisterAll: %v", err)
	}
	if summary.ContactsCreated != 0 || summary.UnitsRegistered != 0 {
		t.Fatalf("second registration should be a no-op, got %+v", summary)
	}
	if got := l.Pending("alice"); len(got) != 1 {
		t.Fatalf("pending duplicated: %v", got)
	}
}

func TestRegisterSkipsCommittedUnchangedUnit(t *testing.T) {
	root := t.TempDir()
	content := "## 09:00 - hi\n\nhi\n"
	path := writeUnit(t, root, "alice", "2026-01-04", content)

	l, store := newLedger(t, root)
	if _, err := l.RegisterAll(context.Background()); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	digest, err := checksum.SumFile(path)
	if err != nil {
		t.Fatalf("SumFile: %v", err)
	}
	if err := l.Commit("alice", "2026-01-04", digest, 1, state.StageTotals{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	summary, err := l.RegisterAll(context.Background())
	if err != nil {
		t.Fatalf("RegisterAll after commit: %v", err)
	}
	if summary.UnitsUnchanged != 1 || summary.UnitsRegistered != 0 {
		t.Fatalf("unchanged unit re-registered: %+v", summary)
	}
	if pending := store.PendingUnits("alice"); len(pending) != 0 {
		t.Fatalf("pending = %v, want empty", pending)
	}
}

func TestRegisterReregistersChangedUnit(t *testing.T) {
	root := t.TempDir()
	path := writeUnit(t, root, "alice", "2026-01-04", "## 09:00 - hi\n\nhi\n")

	l, _ := newLedger(t, root)
	if _, err := l.RegisterAll(context.Background()); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	digest, err := checksum.SumFile(path)
	if err != nil {
		t.Fatalf("SumFile: %v", err)
	}
	if err := l.Commit("alice", "2026-01-04", digest, 1, state.StageTotals{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Append a late message to the staged day.
	writeUnit(t, root, "alice", "2026-01-04", "## 09:00 - hi\n\nhi\n\n---\n\n## 22:10 - more\n\nmore\n")

	summary, err := l.RegisterAll(context.Background())
	if err != nil {
		t.Fatalf("RegisterAll after change: %v", err)
	}
	if summary.UnitsRegistered != 1 {
		t.Fatalf("changed unit not re-registered: %+v", summary)
	}
	if diff := cmp.Diff([]string{"2026-01-04"}, l.Pending("alice")); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestDropRemovesPendingWithoutDigest(t *testing.T) {
	root := t.TempDir()
	writeUnit(t, root, "alice", "2026-01-04", "## 09:00 - hi\n\nhi\n")

	l, store := newLedger(t, root)
	if _, err := l.RegisterAll(context.Background()); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if err := l.Drop("alice", "2026-01-04"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if pending := l.Pending("alice"); len(pending) != 0 {
		t.Fatalf("pending = %v", pending)
	}
	if _, ok := store.UnitDigest("alice", "2026-01-04"); ok {
		t.Fatal("dropped unit must not gain a digest")
	}
}

func TestRegisterHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeUnit(t, root, "alice", "2026-01-04", "## 09:00 - hi\n\nhi\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, _ := newLedger(t, root)
	if _, err := l.RegisterAll(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
