package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"quill/internal/checksum"
	"quill/internal/logging"
)

// Store manages the state file. All mutations are serialized internally and
// persisted atomically before the mutating call returns, so a crash never
// leaves a half-applied transition on disk.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	state *State

	lock *flock.Flock
}

// Open loads (or creates) the state file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "state"),
		lock:   flock.New(path + ".lock"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// AcquireRunLock takes the exclusive run lock. It fails fast when another
// quill process already holds it; concurrent mutation of the state file is
// undefined, so a run never starts without the lock.
func (s *Store) AcquireRunLock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("state file %s is locked by another quill run", s.path)
	}
	return nil
}

// ReleaseRunLock releases the exclusive run lock.
func (s *Store) ReleaseRunLock() error {
	return s.lock.Unlock()
}

// EnsureContact creates the contact on first observation and returns whether
// it was newly created. Existing contacts are left untouched.
func (s *Store) EnsureContact(name string, chatID int64, firstSeen time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Contacts[name]; ok {
		return false, nil
	}

	seen := firstSeen.UTC()
	s.state.Contacts[name] = &Contact{
		ChatID:    chatID,
		FirstSeen: &seen,
		Process: ProcessState{
			UnitDigests: make(map[string]checksum.Digest),
		},
	}
	s.state.Statistics.TotalContacts = len(s.state.Contacts)
	if err := s.save(); err != nil {
		delete(s.state.Contacts, name)
		s.state.Statistics.TotalContacts = len(s.state.Contacts)
		return false, err
	}
	return true, nil
}

// ContactNames returns all known contacts in stable sorted order.
func (s *Store) ContactNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.state.Contacts))
	for name := range s.state.Contacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contact returns a copy of the contact's state.
func (s *Store) Contact(name string) (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return Contact{}, false
	}
	cp := *contact
	cp.Process = contact.Process.clone()
	return cp, true
}

// UpdateFetch records fetch-side progress: the high-water message ID and the
// number of messages appended in this batch. LastMessageID never decreases.
func (s *Store) UpdateFetch(name string, lastMessageID int64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return fmt.Errorf("contact %q not known; register it first", name)
	}

	prev := contact.Fetch
	prevSeen := contact.LastSeen
	prevStats := s.state.Statistics

	now := time.Now().UTC()
	if lastMessageID > contact.Fetch.LastMessageID {
		contact.Fetch.LastMessageID = lastMessageID
	}
	contact.Fetch.LastFetchTime = &now
	contact.Fetch.TotalFetched += int64(count)
	contact.LastSeen = &now
	s.state.Statistics.TotalFetched += int64(count)

	if err := s.save(); err != nil {
		contact.Fetch = prev
		contact.LastSeen = prevSeen
		s.state.Statistics = prevStats
		return err
	}
	return nil
}

// AddPending appends a unit key to the contact's pending set, preserving
// insertion order. It is idempotent; re-registering a pending key is a no-op.
func (s *Store) AddPending(name, unitKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return false, fmt.Errorf("contact %q not known; register it first", name)
	}
	if contact.Process.pendingIndex(unitKey) >= 0 {
		return false, nil
	}

	contact.Process.PendingUnits = append(contact.Process.PendingUnits, unitKey)
	if err := s.save(); err != nil {
		contact.Process.removePending(unitKey)
		return false, err
	}
	return true, nil
}

// PendingUnits returns the contact's pending unit keys in insertion order.
func (s *Store) PendingUnits(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return nil
	}
	return append([]string(nil), contact.Process.PendingUnits...)
}

// UnitDigest returns the last committed digest for a unit key, if any.
func (s *Store) UnitDigest(name, unitKey string) (checksum.Digest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return "", false
	}
	digest, ok := contact.Process.UnitDigests[unitKey]
	return digest, ok
}

// ProcessedKeys returns the unit keys with a committed digest, sorted.
func (s *Store) ProcessedKeys(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(contact.Process.UnitDigests))
	for key := range contact.Process.UnitDigests {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DropPending removes a unit key from the pending set without committing a
// digest. Used when a staged file disappeared before processing.
func (s *Store) DropPending(name, unitKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return nil
	}
	if !contact.Process.removePending(unitKey) {
		return nil
	}
	if err := s.save(); err != nil {
		contact.Process.PendingUnits = append(contact.Process.PendingUnits, unitKey)
		return err
	}
	return nil
}

// CommitUnit finalizes processing of one staged unit in a single durable
// transaction: the committed digest is recorded, the key leaves the pending
// set, and process counters plus global statistics advance together. On a
// failed save the in-memory state is rolled back so the unit stays pending.
func (s *Store) CommitUnit(name, unitKey string, digest checksum.Digest, records int, totals StageTotals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.state.Contacts[name]
	if !ok {
		return fmt.Errorf("contact %q not known", name)
	}

	prevProcess := contact.Process.clone()
	prevStats := s.state.Statistics

	now := time.Now().UTC()
	contact.Process.UnitDigests[unitKey] = digest
	contact.Process.removePending(unitKey)
	contact.Process.LastProcessedKey = unitKey
	contact.Process.LastProcessTime = &now
	contact.Process.TotalProcessed += int64(records)

	s.state.Statistics.TotalProcessed += int64(records)
	s.state.Statistics.TotalTranscriptions += int64(totals.Transcriptions)
	s.state.Statistics.TotalSummaries += int64(totals.Summaries)
	s.state.Statistics.TotalOCR += int64(totals.OCRRuns)
	s.state.Statistics.TotalTags += int64(totals.Tags)
	s.state.Statistics.TotalLinks += int64(totals.Links)

	if err := s.save(); err != nil {
		contact.Process = prevProcess
		s.state.Statistics = prevStats
		return err
	}
	return nil
}

// Statistics returns a copy of the global statistics.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Statistics
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.state = newState()
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		// Quarantine the unreadable file and start fresh; the previous
		// good copy remains in the .bak next to it.
		corruptPath := s.path + ".corrupt"
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return fmt.Errorf("quarantine corrupt state file: %w", renameErr)
		}
		s.logger.Warn("state file unreadable; starting fresh",
			logging.Error(err),
			logging.String("quarantined", corruptPath))
		s.state = newState()
		return nil
	}

	if loaded.Contacts == nil {
		loaded.Contacts = make(map[string]*Contact)
	}
	for _, contact := range loaded.Contacts {
		if contact.Process.UnitDigests == nil {
			contact.Process.UnitDigests = make(map[string]checksum.Digest)
		}
	}
	if loaded.Version == "" {
		loaded.Version = SchemaVersion
	}
	s.state = &loaded
	return nil
}

// save writes the state atomically: back up the current file, write a temp
// file, fsync it, then rename over the original. Callers hold s.mu.
func (s *Store) save() error {
	s.state.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+".bak"); err != nil {
			return fmt.Errorf("back up state file: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
