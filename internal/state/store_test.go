package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quill/internal/checksum"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.json"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestEnsureContactIdempotent(t *testing.T) {
	store := openStore(t)

	created, err := store.EnsureContact("alice", 100, time.Now())
	if err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if !created {
		t.Fatal("first EnsureContact should create")
	}

	created, err = store.EnsureContact("alice", 100, time.Now())
	if err != nil {
		t.Fatalf("EnsureContact repeat: %v", err)
	}
	if created {
		t.Fatal("second EnsureContact should be a no-op")
	}

	if got := store.Statistics().TotalContacts; got != 1 {
		t.Fatalf("TotalContacts = %d, want 1", got)
	}
}

func TestPendingInsertionOrder(t *testing.T) {
	store := openStore(t)
	if _, err := store.EnsureContact("bob", 7, time.Now()); err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}

	for _, key := range []string{"2026-01-04", "2026-01-02", "2026-01-03"} {
		if _, err := store.AddPending("bob", key); err != nil {
			t.Fatalf("AddPending(%s): %v", key, err)
		}
	}
	// Re-registering must not duplicate or reorder.
	if added, err := store.AddPending("bob", "2026-01-02"); err != nil || added {
		t.Fatalf("AddPending duplicate: added=%v err=%v", added, err)
	}

	want := []string{"2026-01-04", "2026-01-02", "2026-01-03"}
	if diff := cmp.Diff(want, store.PendingUnits("bob")); diff != "" {
		t.Fatalf("pending order mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitUnit(t *testing.T) {
	store := openStore(t)
	if _, err := store.EnsureContact("carol", 1, time.Now()); err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if _, err := store.AddPending("carol", "2026-01-04"); err != nil {
		t.Fatalf("AddPending: %v", err)
	}

	digest := checksum.Sum([]byte("Hello"))
	totals := StageTotals{Transcriptions: 1, Tags: 3, Links: 2}
	if err := store.CommitUnit("carol", "2026-01-04", digest, 5, totals); err != nil {
		t.Fatalf("CommitUnit: %v", err)
	}

	got, ok := store.UnitDigest("carol", "2026-01-04")
	if !ok || got != digest {
		t.Fatalf("UnitDigest = %q ok=%v, want %q", got, ok, digest)
	}
	if pending := store.PendingUnits("carol"); len(pending) != 0 {
		t.Fatalf("pending after commit = %v, want empty", pending)
	}

	stats := store.Statistics()
	if stats.TotalProcessed != 5 || stats.TotalTranscriptions != 1 || stats.TotalTags != 3 || stats.TotalLinks != 2 {
		t.Fatalf("statistics not advanced: %+v", stats)
	}

	contact, ok := store.Contact("carol")
	if !ok {
		t.Fatal("contact missing")
	}
	if contact.Process.LastProcessedKey != "2026-01-04" {
		t.Fatalf("LastProcessedKey = %q", contact.Process.LastProcessedKey)
	}
	if contact.Process.LastProcessTime == nil {
		t.Fatal("LastProcessTime not set")
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.EnsureContact("dave", 9, time.Now()); err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if err := store.UpdateFetch("dave", 42, 3); err != nil {
		t.Fatalf("UpdateFetch: %v", err)
	}
	if _, err := store.AddPending("dave", "2026-01-04"); err != nil {
		t.Fatalf("AddPending: %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	contact, ok := reopened.Contact("dave")
	if !ok {
		t.Fatal("contact lost on reopen")
	}
	if contact.Fetch.LastMessageID != 42 || contact.Fetch.TotalFetched != 3 {
		t.Fatalf("fetch state lost: %+v", contact.Fetch)
	}
	if diff := cmp.Diff([]string{"2026-01-04"}, reopened.PendingUnits("dave")); diff != "" {
		t.Fatalf("pending lost (-want +got):\n%s", diff)
	}
}

func TestFetchHighWaterMarkNeverDecreases(t *testing.T) {
	store := openStore(t)
	if _, err := store.EnsureContact("erin", 2, time.Now()); err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if err := store.UpdateFetch("erin", 50, 1); err != nil {
		t.Fatalf("UpdateFetch: %v", err)
	}
	if err := store.UpdateFetch("erin", 40, 1); err != nil {
		t.Fatalf("UpdateFetch lower: %v", err)
	}
	contact, _ := store.Contact("erin")
	if contact.Fetch.LastMessageID != 50 {
		t.Fatalf("LastMessageID = %d, want 50", contact.Fetch.LastMessageID)
	}
}

func TestCorruptStateQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open with corrupt file: %v", err)
	}
	if names := store.ContactNames(); len(names) != 0 {
		t.Fatalf("fresh state expected, got contacts %v", names)
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Fatalf("corrupt file not quarantined: %v", err)
	}
}

func TestSaveWritesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.EnsureContact("frank", 3, time.Now()); err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if _, err := store.AddPending("frank", "2026-01-04"); err != nil {
		t.Fatalf("AddPending: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	var snapshot State
	if err := json.Unmarshal(backup, &snapshot); err != nil {
		t.Fatalf("backup not parseable: %v", err)
	}
	// The backup lags by one save: it holds the pre-AddPending document.
	if len(snapshot.Contacts["frank"].Process.PendingUnits) != 0 {
		t.Fatalf("backup should predate last save: %+v", snapshot.Contacts["frank"].Process)
	}
}

func TestRunLockExcludesSecondHolder(t *testing.T) {
	store := openStore(t)
	if err := store.AcquireRunLock(); err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}
	defer store.ReleaseRunLock()

	second, err := Open(store.Path(), nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if err := second.AcquireRunLock(); err == nil {
		second.ReleaseRunLock()
		t.Fatal("second lock acquisition should fail while first is held")
	}
}
