package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/services"
)

// Config holds tesseract invocation settings.
type Config struct {
	Binary    string
	Languages []string
	Timeout   time.Duration
}

// Extractor runs the tesseract binary against image files.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New builds an Extractor from config.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Extractor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "ocr"),
	}
}

// Available reports whether the configured binary can be found.
func (e *Extractor) Available() error {
	if _, err := exec.LookPath(e.cfg.Binary); err != nil {
		return services.Wrap(services.ErrExternalTool, "ocr", "lookup binary",
			fmt.Sprintf("%s not found in PATH", e.cfg.Binary), err)
	}
	return nil
}

// ExtractText runs OCR and returns the recognized text, trimmed. An image
// with no recognizable text yields an empty string and no error.
func (e *Extractor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "ocr", "open image", "image file missing", err)
		}
		return "", services.Wrap(services.ErrExternalTool, "ocr", "open image", "cannot read image file", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	args := []string{imagePath, "stdout"}
	if lang := strings.Join(e.cfg.Languages, "+"); lang != "" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(runCtx, e.cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if runCtx.Err() != nil {
			return "", services.Wrap(services.ErrTimeout, "ocr", "run tesseract", "extraction timed out", runCtx.Err())
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", services.Wrap(services.ErrExternalTool, "ocr", "run tesseract",
				fmt.Sprintf("%s not found in PATH", e.cfg.Binary), err)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", services.Wrap(services.ErrExternalTool, "ocr", "run tesseract", detail, err)
	}

	text := strings.TrimSpace(stdout.String())
	e.logger.Debug("ocr completed",
		logging.Int("chars", len(text)),
		logging.Duration("elapsed", time.Since(start)))
	return text, nil
}
