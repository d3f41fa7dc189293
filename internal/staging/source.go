package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// unitFilePattern matches daily unit file names (YYYY-MM-DD.md).
var unitFilePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Source abstracts where staged content comes from so the ledger and
// orchestrator can be tested against in-memory fixtures.
type Source interface {
	// Contacts lists contact directories in sorted order.
	Contacts() ([]string, error)
	// Units lists a contact's unit keys (YYYY-MM-DD) in sorted order.
	Units(contact string) ([]string, error)
	// UnitPath returns the filesystem path of a staged unit file.
	UnitPath(contact, unitKey string) string
	// ReadUnit returns the raw bytes of a staged unit file.
	ReadUnit(contact, unitKey string) ([]byte, error)
}

// Dir is a filesystem-backed Source rooted at the staging directory.
type Dir struct {
	root string
}

// NewDir creates a Source over the given staging directory.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the staging directory.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Contacts() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read staging directory: %w", err)
	}
	contacts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		contacts = append(contacts, name)
	}
	sort.Strings(contacts)
	return contacts, nil
}

func (d *Dir) Units(contact string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, contact))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read contact directory %q: %w", contact, err)
	}
	units := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !unitFilePattern.MatchString(name) {
			continue
		}
		units = append(units, strings.TrimSuffix(name, ".md"))
	}
	sort.Strings(units)
	return units, nil
}

func (d *Dir) UnitPath(contact, unitKey string) string {
	return filepath.Join(d.root, contact, unitKey+".md")
}

func (d *Dir) ReadUnit(contact, unitKey string) ([]byte, error) {
	return os.ReadFile(d.UnitPath(contact, unitKey))
}
