package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the archive directory layout and state file location.
type Paths struct {
	StagingDir   string `toml:"staging_dir"`
	ProcessedDir string `toml:"processed_dir"`
	StateFile    string `toml:"state_file"`
	CacheDir     string `toml:"cache_dir"`
}

// Processing contains orchestrator concurrency and retry settings.
type Processing struct {
	Workers       int `toml:"workers"`
	RetryAttempts int `toml:"retry_attempts"`
}

// Transcription contains configuration for the speech-to-text backend.
type Transcription struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OCR contains configuration for image text extraction.
type OCR struct {
	Enabled        bool     `toml:"enabled"`
	Binary         string   `toml:"binary"`
	Languages      []string `toml:"languages"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Summarization contains configuration for AI text summaries.
type Summarization struct {
	Enabled        bool `toml:"enabled"`
	MinWords       int  `toml:"min_words"`
	MaxSentences   int  `toml:"max_sentences"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

// Links contains configuration for web page metadata fetching.
type Links struct {
	Enabled        bool   `toml:"enabled"`
	UserAgent      string `toml:"user_agent"`
	MaxPerMessage  int    `toml:"max_per_message"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// YouTube contains configuration for YouTube metadata and caption retrieval.
type YouTube struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tagging contains configuration for rule-based and AI tag generation.
type Tagging struct {
	RulesPath string `toml:"rules_path"`
	AIEnabled bool   `toml:"ai_enabled"`
	MaxTags   int    `toml:"max_tags"`
}

// LLM contains shared LLM connection settings used by multiple features.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cache contains configuration for the enrichment result cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format    string `toml:"format"`
	Level     string `toml:"level"`
	Directory string `toml:"directory"`
}

// Config encapsulates all configuration values for quill.
//
// Configuration sections by subsystem:
//   - Paths: staging/processed directory layout, state file, cache dir
//   - Processing: worker pool size and per-unit retry budget
//   - Transcription: voice message speech-to-text backend
//   - OCR: image text extraction via tesseract
//   - Summarization: AI summaries for long text
//   - Links: web page metadata fetching
//   - YouTube: video metadata and caption retrieval
//   - Tagging: rule file location and optional AI tag pass
//   - LLM: shared LLM connection settings for features that need AI
//   - Cache: enrichment result cache keyed by content digest
//   - Logging: log format, level, and directory
type Config struct {
	Paths         Paths         `toml:"paths"`
	Processing    Processing    `toml:"processing"`
	Transcription Transcription `toml:"transcription"`
	OCR           OCR           `toml:"ocr"`
	Summarization Summarization `toml:"summarization"`
	Links         Links         `toml:"links"`
	YouTube       YouTube       `toml:"youtube"`
	Tagging       Tagging       `toml:"tagging"`
	LLM           LLM           `toml:"llm"`
	Cache         Cache         `toml:"cache"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/quill/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a processing run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StagingDir,
		c.Paths.ProcessedDir,
		filepath.Dir(c.Paths.StateFile),
	}
	if c.Logging.Directory != "" {
		dirs = append(dirs, c.Logging.Directory)
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Paths.CacheDir) != "" {
		dirs = append(dirs, c.Paths.CacheDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TranscriptionTimeout returns the transcription stage deadline.
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

// OCRTimeout returns the OCR stage deadline.
func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSeconds) * time.Second
}

// SummarizationTimeout returns the summarization stage deadline.
func (c *Config) SummarizationTimeout() time.Duration {
	return time.Duration(c.Summarization.TimeoutSeconds) * time.Second
}

// LinkTimeout returns the metadata-fetch stage deadline.
func (c *Config) LinkTimeout() time.Duration {
	return time.Duration(c.Links.TimeoutSeconds) * time.Second
}

// YouTubeTimeout returns the transcript-fetch stage deadline.
func (c *Config) YouTubeTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings used across features.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// NeedsLLM reports whether any enabled feature requires an LLM connection.
func (c *Config) NeedsLLM() bool {
	return c.Summarization.Enabled || c.Tagging.AIEnabled
}
