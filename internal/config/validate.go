package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateLinks(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ProcessedDir) == "" {
		return errors.New("paths.processed_dir must be set")
	}
	if c.Paths.StagingDir == c.Paths.ProcessedDir {
		return errors.New("paths.staging_dir and paths.processed_dir must differ")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if err := ensurePositiveMap(map[string]int{
		"processing.workers": c.Processing.Workers,
	}); err != nil {
		return err
	}
	if c.Processing.RetryAttempts < 0 {
		return errors.New("processing.retry_attempts must be >= 0")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !c.Transcription.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Transcription.URL) == "" {
		return errors.New("transcription.url must be set when transcription.enabled is true")
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if !c.OCR.Enabled {
		return nil
	}
	if strings.TrimSpace(c.OCR.Binary) == "" {
		return errors.New("ocr.binary must be set when ocr.enabled is true")
	}
	if len(c.OCR.Languages) == 0 {
		return errors.New("ocr.languages must include at least one language when ocr.enabled is true")
	}
	return nil
}

func (c *Config) validateLinks() error {
	if !c.Links.Enabled {
		return nil
	}
	if err := ensurePositiveMap(map[string]int{
		"links.max_per_message": c.Links.MaxPerMessage,
		"links.timeout_seconds": c.Links.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !c.NeedsLLM() {
		return nil
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/quill/config.toml"
		}
		return fmt.Errorf("llm.api_key is required when summarization or AI tagging is enabled. Set QUILL_LLM_API_KEY env var or edit %s (create with 'quill config init')", defaultPath)
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
