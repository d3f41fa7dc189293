package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
)

func TestLoadDefaultsExpandPathsAndUseEnvKeys(t *testing.T) {
	t.Setenv("QUILL_LLM_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "quill", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "quill", "state.json")
	if cfg.Paths.StateFile != wantState {
		t.Fatalf("unexpected state file: %q", cfg.Paths.StateFile)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Summarization.Enabled {
		t.Fatal("expected summarization disabled by default")
	}
	if cfg.Tagging.AIEnabled {
		t.Fatal("expected AI tagging disabled by default")
	}
	if cfg.Processing.Workers != 4 {
		t.Fatalf("unexpected default workers: %d", cfg.Processing.Workers)
	}
	if cfg.Cache.Path != filepath.Join(tempHome, ".cache", "quill", "enrichment.db") {
		t.Fatalf("unexpected cache path: %q", cfg.Cache.Path)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadParsesFileOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "quill.toml")
	content := `
[paths]
staging_dir = "~/archive/staging"
processed_dir = "~/archive/processed"

[processing]
workers = 2
retry_attempts = 3

[transcription]
enabled = false

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.StagingDir != filepath.Join(tempHome, "archive", "staging") {
		t.Fatalf("staging dir not expanded: %q", cfg.Paths.StagingDir)
	}
	if cfg.Processing.Workers != 2 || cfg.Processing.RetryAttempts != 3 {
		t.Fatalf("processing overrides lost: %+v", cfg.Processing)
	}
	if cfg.Transcription.Enabled {
		t.Fatal("transcription override lost")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging overrides lost: %+v", cfg.Logging)
	}
}

func TestValidateRejectsSummarizationWithoutLLMKey(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("QUILL_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	path := filepath.Join(tempHome, "quill.toml")
	content := `
[summarization]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error for missing llm.api_key")
	}
	if !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsSharedStagingAndProcessedDir(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "quill.toml")
	content := `
[paths]
staging_dir = "~/archive"
processed_dir = "~/archive"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for shared staging/processed dir")
	}
}

func TestNormalizeClampsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "quill.toml")
	content := `
[processing]
workers = 0

[logging]
format = "xml"

[ocr]
languages = ["ENG", "", "eng"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Processing.Workers != 4 {
		t.Fatalf("workers should fall back to default, got %d", cfg.Processing.Workers)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unknown format should fall back to console, got %q", cfg.Logging.Format)
	}
	if len(cfg.OCR.Languages) != 1 || cfg.OCR.Languages[0] != "eng" {
		t.Fatalf("ocr languages not deduplicated: %v", cfg.OCR.Languages)
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Processing.Workers != 4 {
		t.Fatalf("sample defaults drifted: workers = %d", cfg.Processing.Workers)
	}
}
