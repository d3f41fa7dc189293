package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// External enrichment backends are disabled so tests never reach the network;
// options re-enable what a test needs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfgVal.Paths.StateFile = filepath.Join(base, "state.json")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Logging.Directory = filepath.Join(base, "logs")
	cfgVal.Tagging.RulesPath = filepath.Join(base, "tagging_rules.yaml")
	cfgVal.Transcription.Enabled = false
	cfgVal.OCR.Enabled = false
	cfgVal.Links.Enabled = false
	cfgVal.YouTube.Enabled = false
	cfgVal.Summarization.Enabled = false
	cfgVal.Cache.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMKey sets the LLM API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithAITagging enables the AI tagging pass on the test config.
func WithAITagging() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tagging.AIEnabled = true
	}
}

// WithOCRBinary enables OCR and points it at the given binary path.
func WithOCRBinary(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OCR.Enabled = true
		b.cfg.OCR.Binary = path
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, tesseract is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"tesseract"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
