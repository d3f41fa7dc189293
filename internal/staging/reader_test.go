package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quill/internal/message"
)

const sampleUnit = `## 09:15 - Good morning!

Good morning!

---

## 10:02 - [Voice Message]

[Audio](media/voice_2026-01-04_10-02.ogg)

---

## 12:45 - [Image]

![Image](media/photo_2026-01-04_12-45.jpg)

Caption: lunch spot

---

## 14:30 - check this out https://youtu.be/dQw4w9WgXcQ

check this out https://youtu.be/dQw4w9WgXcQ

---

not a valid entry header

---

## 18:00 - [Document]

[report.pdf](media/report.pdf)
`

func TestParseUnit(t *testing.T) {
	reader := NewReader(time.UTC, nil)
	records, err := reader.ParseUnit([]byte(sampleUnit), "alice", "2026-01-04", "")
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5 (malformed entry skipped)", len(records))
	}

	first := records[0]
	if first.Kind != message.KindText || first.Text != "Good morning!" {
		t.Fatalf("first record = %+v", first)
	}
	wantTS := time.Date(2026, 1, 4, 9, 15, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantTS) {
		t.Fatalf("timestamp = %v, want %v", first.Timestamp, wantTS)
	}
	if first.Contact != "alice" {
		t.Fatalf("contact = %q", first.Contact)
	}

	voice := records[1]
	if voice.Kind != message.KindVoice {
		t.Fatalf("voice kind = %s", voice.Kind)
	}
	if voice.MediaPath != "media/voice_2026-01-04_10-02.ogg" {
		t.Fatalf("voice media path = %q", voice.MediaPath)
	}

	image := records[2]
	if image.Kind != message.KindImage {
		t.Fatalf("image kind = %s", image.Kind)
	}
	if image.Caption != "lunch spot" {
		t.Fatalf("image caption = %q", image.Caption)
	}
	if image.MediaPath != "media/photo_2026-01-04_12-45.jpg" {
		t.Fatalf("image media path = %q", image.MediaPath)
	}

	link := records[3]
	if link.Kind != message.KindLink {
		t.Fatalf("link kind = %s", link.Kind)
	}
	if message.Classify(link) != message.VariantYouTubeLink {
		t.Fatalf("expected youtube-link variant, got %s", message.Classify(link))
	}

	doc := records[4]
	if doc.Kind != message.KindDocument || doc.MediaPath != "media/report.pdf" {
		t.Fatalf("document record = %+v", doc)
	}
}

func TestParseUnitEmbeddedImageWithoutIndicator(t *testing.T) {
	content := "## 11:00 - photo\n\n![Image](media/x.png)\n"
	reader := NewReader(time.UTC, nil)
	records, err := reader.ParseUnit([]byte(content), "bob", "2026-01-02", "")
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if len(records) != 1 || records[0].Kind != message.KindImage {
		t.Fatalf("records = %+v", records)
	}
}

func TestParseUnitResolvesMediaAgainstUnitDir(t *testing.T) {
	content := "## 10:02 - [Voice Message]\n\n[Audio](media/voice.ogg)\n"
	unitPath := filepath.Join("/archive", "staging", "alice", "2026-01-04.md")

	reader := NewReader(time.UTC, nil)
	records, err := reader.ParseUnit([]byte(content), "alice", "2026-01-04", unitPath)
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	want := filepath.Join("/archive", "staging", "alice", "media", "voice.ogg")
	if len(records) != 1 || records[0].MediaPath != want {
		t.Fatalf("media path = %q, want %q", records[0].MediaPath, want)
	}

	// Absolute links are left alone.
	absContent := "## 10:05 - [Image]\n\n![Image](/srv/media/pic.png)\n"
	records, err = reader.ParseUnit([]byte(absContent), "alice", "2026-01-04", unitPath)
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if records[0].MediaPath != "/srv/media/pic.png" {
		t.Fatalf("absolute media path rewritten to %q", records[0].MediaPath)
	}
}

func TestParseUnitRejectsBadKey(t *testing.T) {
	reader := NewReader(time.UTC, nil)
	if _, err := reader.ParseUnit(nil, "alice", "notes", ""); err == nil {
		t.Fatal("expected error for non-date unit key")
	}
}

func TestParseUnitEmptyContent(t *testing.T) {
	reader := NewReader(time.UTC, nil)
	records, err := reader.ParseUnit([]byte("\n\n"), "alice", "2026-01-04", "")
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %+v", records)
	}
}

func TestDirListsContactsAndUnits(t *testing.T) {
	root := t.TempDir()
	for _, path := range []string{
		"bob/2026-01-03.md",
		"bob/2026-01-01.md",
		"alice/2026-01-04.md",
		"alice/media/photo.jpg",
		"alice/notes.txt",
	} {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	dir := NewDir(root)
	contacts, err := dir.Contacts()
	if err != nil {
		t.Fatalf("Contacts: %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "bob"}, contacts); diff != "" {
		t.Fatalf("contacts mismatch (-want +got):\n%s", diff)
	}

	units, err := dir.Units("bob")
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if diff := cmp.Diff([]string{"2026-01-01", "2026-01-03"}, units); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}

	// Non-date files and media directories are ignored.
	units, err = dir.Units("alice")
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if diff := cmp.Diff([]string{"2026-01-04"}, units); diff != "" {
		t.Fatalf("alice units mismatch (-want +got):\n%s", diff)
	}
}

func TestDirMissingRootIsEmpty(t *testing.T) {
	dir := NewDir(filepath.Join(t.TempDir(), "missing"))
	contacts, err := dir.Contacts()
	if err != nil || len(contacts) != 0 {
		t.Fatalf("Contacts = %v, %v", contacts, err)
	}
	units, err := dir.Units("alice")
	if err != nil || len(units) != 0 {
		t.Fatalf("Units = %v, %v", units, err)
	}
}
