package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"quill/internal/logging"
	"quill/internal/textutil"
)

// Sink writes processed notes durably under processed/<contact>/<unit>.md.
// Writes go through a temp file, fsync, and rename so a crash never leaves
// a partially written note at the final path.
type Sink struct {
	root   string
	logger *slog.Logger
}

// NewSink builds a Sink rooted at the processed directory.
func NewSink(root string, logger *slog.Logger) *Sink {
	return &Sink{
		root:   root,
		logger: logging.NewComponentLogger(logger, "artifact"),
	}
}

// Path returns where the note for a unit lives.
func (s *Sink) Path(contact, unitKey string) string {
	return filepath.Join(s.root, textutil.SanitizeFileName(contact), unitKey+".md")
}

// Write persists the rendered note and returns its final path. The rename
// is the durability point the commit protocol waits on.
func (s *Sink) Write(contact, unitKey string, data []byte) (string, error) {
	final := s.Path(contact, unitKey)
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(final), "."+unitKey+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("finalize artifact: %w", err)
	}

	s.logger.Debug("artifact written",
		logging.String(logging.FieldContact, contact),
		logging.String(logging.FieldUnit, unitKey),
		logging.Int("bytes", len(data)))
	return final, nil
}
