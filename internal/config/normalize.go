package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProcessing()
	c.normalizeTranscription()
	c.normalizeOCR()
	c.normalizeSummarization()
	c.normalizeLinks()
	c.normalizeYouTube()
	if err := c.normalizeTagging(); err != nil {
		return err
	}
	c.normalizeLLM()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ProcessedDir, err = expandPath(c.Paths.ProcessedDir); err != nil {
		return fmt.Errorf("paths.processed_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		c.Paths.StateFile = defaultStateFile
	}
	if c.Paths.StateFile, err = expandPath(c.Paths.StateFile); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProcessing() {
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = defaultWorkers
	}
	if c.Processing.RetryAttempts < 0 {
		c.Processing.RetryAttempts = 0
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.URL = strings.TrimSpace(c.Transcription.URL)
	if c.Transcription.URL == "" {
		c.Transcription.URL = defaultTranscriptionURL
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptionLanguage
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeOCR() {
	c.OCR.Binary = strings.TrimSpace(c.OCR.Binary)
	if c.OCR.Binary == "" {
		c.OCR.Binary = defaultOCRBinary
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng"}
	} else {
		langs := make([]string, 0, len(c.OCR.Languages))
		seen := make(map[string]struct{}, len(c.OCR.Languages))
		for _, lang := range c.OCR.Languages {
			normalized := strings.ToLower(strings.TrimSpace(lang))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			langs = append(langs, normalized)
		}
		if len(langs) == 0 {
			langs = []string{"eng"}
		}
		c.OCR.Languages = langs
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeout
	}
}

func (c *Config) normalizeSummarization() {
	if c.Summarization.MinWords <= 0 {
		c.Summarization.MinWords = defaultSummaryMinWords
	}
	if c.Summarization.MaxSentences <= 0 {
		c.Summarization.MaxSentences = defaultSummaryMaxSentences
	}
	if c.Summarization.TimeoutSeconds <= 0 {
		c.Summarization.TimeoutSeconds = defaultSummaryTimeout
	}
}

func (c *Config) normalizeLinks() {
	c.Links.UserAgent = strings.TrimSpace(c.Links.UserAgent)
	if c.Links.UserAgent == "" {
		c.Links.UserAgent = defaultLinkUserAgent
	}
	if c.Links.MaxPerMessage <= 0 {
		c.Links.MaxPerMessage = defaultLinkMaxPerMessage
	}
	if c.Links.TimeoutSeconds <= 0 {
		c.Links.TimeoutSeconds = defaultLinkTimeout
	}
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	if c.YouTube.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.YouTube.APIKey = strings.TrimSpace(value)
		}
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = defaultYouTubeTimeout
	}
}

func (c *Config) normalizeTagging() error {
	var err error
	if strings.TrimSpace(c.Tagging.RulesPath) == "" {
		c.Tagging.RulesPath = defaultTaggingRulesPath
	}
	if c.Tagging.RulesPath, err = expandPath(c.Tagging.RulesPath); err != nil {
		return fmt.Errorf("tagging.rules_path: %w", err)
	}
	if c.Tagging.MaxTags <= 0 {
		c.Tagging.MaxTags = defaultTaggingMaxTags
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("QUILL_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = filepath.Join(c.Paths.CacheDir, "enrichment.db")
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Directory) != "" {
		var err error
		if c.Logging.Directory, err = expandPath(c.Logging.Directory); err != nil {
			return fmt.Errorf("logging.directory: %w", err)
		}
	}
	return nil
}
