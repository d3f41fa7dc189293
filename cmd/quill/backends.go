package main

import (
	"fmt"
	"log/slog"

	"quill/internal/config"
	"quill/internal/enrich"
	"quill/internal/enrichcache"
	"quill/internal/services/linkmeta"
	"quill/internal/services/llm"
	"quill/internal/services/ocr"
	"quill/internal/services/whisper"
	"quill/internal/services/youtube"
	"quill/internal/tagging"
)

// buildPipeline assembles the enrichment pipeline from configuration.
// Disabled features leave their backend nil; the pipeline records a skipped
// stage note instead of failing. The returned cache is nil when caching is
// disabled and must be closed by the caller otherwise.
func buildPipeline(cfg *config.Config, skip enrich.Skip, logger *slog.Logger) (*enrich.Pipeline, *enrichcache.Cache, error) {
	var ai *llm.Client
	if cfg.NeedsLLM() {
		settings := cfg.GetLLM()
		ai = llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
	}

	var backends enrich.Backends

	if cfg.Transcription.Enabled {
		backends.Transcriber = whisper.NewClient(whisper.Config{
			BaseURL:  cfg.Transcription.URL,
			Model:    cfg.Transcription.Model,
			Language: cfg.Transcription.Language,
			Timeout:  cfg.TranscriptionTimeout(),
		}, logger)
	}
	if cfg.OCR.Enabled {
		backends.OCR = ocr.New(ocr.Config{
			Binary:    cfg.OCR.Binary,
			Languages: cfg.OCR.Languages,
			Timeout:   cfg.OCRTimeout(),
		}, logger)
	}
	if cfg.Summarization.Enabled && ai != nil {
		backends.Summarizer = enrich.NewLLMSummarizer(ai, cfg.Summarization.MinWords, cfg.Summarization.MaxSentences)
	}
	if cfg.Links.Enabled {
		backends.Links = linkmeta.NewClient(linkmeta.Config{
			UserAgent: cfg.Links.UserAgent,
			Timeout:   cfg.LinkTimeout(),
		}, logger)
	}
	if cfg.YouTube.Enabled {
		backends.YouTube = youtube.NewClient(youtube.Config{
			APIKey:  cfg.YouTube.APIKey,
			Timeout: cfg.YouTubeTimeout(),
		}, logger)
	}

	rules, err := tagging.LoadRules(cfg.Tagging.RulesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load tagging rules: %w", err)
	}
	var taggerAI tagging.Completer
	if cfg.Tagging.AIEnabled && ai != nil {
		taggerAI = ai
	}
	backends.Tagger = tagging.New(rules, taggerAI, cfg.Tagging.MaxTags, logger)

	// Config-level disablement and run-level skip flags fold together.
	skip.Transcription = skip.Transcription || !cfg.Transcription.Enabled
	skip.OCR = skip.OCR || !cfg.OCR.Enabled
	skip.Summarization = skip.Summarization || !cfg.Summarization.Enabled
	skip.Links = skip.Links || !cfg.Links.Enabled

	timeouts := enrich.Timeouts{
		Transcription: cfg.TranscriptionTimeout(),
		OCR:           cfg.OCRTimeout(),
		Summarization: cfg.SummarizationTimeout(),
		Links:         cfg.LinkTimeout(),
		YouTube:       cfg.YouTubeTimeout(),
	}

	var cache *enrichcache.Cache
	if cfg.Cache.Enabled {
		cache, err = enrichcache.Open(cfg.Cache.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open enrichment cache: %w", err)
		}
	}

	return enrich.New(backends, skip, timeouts, cache, logger), cache, nil
}
