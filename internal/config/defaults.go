package config

const (
	defaultStagingDir            = "~/.local/share/quill/staging"
	defaultProcessedDir          = "~/.local/share/quill/processed"
	defaultStateFile             = "~/.local/share/quill/state.json"
	defaultCacheDir              = "~/.cache/quill"
	defaultLogDir                = "~/.local/share/quill/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultWorkers               = 4
	defaultRetryAttempts         = 1
	defaultTranscriptionURL      = "http://127.0.0.1:9000"
	defaultTranscriptionModel    = "large-v3-turbo"
	defaultTranscriptionLanguage = "en"
	defaultTranscriptionTimeout  = 300
	defaultOCRBinary             = "tesseract"
	defaultOCRTimeout            = 60
	defaultSummaryMinWords       = 100
	defaultSummaryMaxSentences   = 3
	defaultSummaryTimeout        = 60
	defaultLinkUserAgent         = "quill/1.0 (+https://github.com/quillarchive/quill)"
	defaultLinkMaxPerMessage     = 5
	defaultLinkTimeout           = 15
	defaultYouTubeTimeout        = 30
	defaultTaggingRulesPath      = "~/.config/quill/tagging_rules.yaml"
	defaultTaggingMaxTags        = 10
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/quillarchive/quill"
	defaultLLMTitle              = "Quill Archive Enrichment"
	defaultLLMTimeoutSeconds     = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:   defaultStagingDir,
			ProcessedDir: defaultProcessedDir,
			StateFile:    defaultStateFile,
			CacheDir:     defaultCacheDir,
		},
		Processing: Processing{
			Workers:       defaultWorkers,
			RetryAttempts: defaultRetryAttempts,
		},
		Transcription: Transcription{
			Enabled:        true,
			URL:            defaultTranscriptionURL,
			Model:          defaultTranscriptionModel,
			Language:       defaultTranscriptionLanguage,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		OCR: OCR{
			Enabled:        true,
			Binary:         defaultOCRBinary,
			Languages:      []string{"eng"},
			TimeoutSeconds: defaultOCRTimeout,
		},
		Summarization: Summarization{
			Enabled:        false,
			MinWords:       defaultSummaryMinWords,
			MaxSentences:   defaultSummaryMaxSentences,
			TimeoutSeconds: defaultSummaryTimeout,
		},
		Links: Links{
			Enabled:        true,
			UserAgent:      defaultLinkUserAgent,
			MaxPerMessage:  defaultLinkMaxPerMessage,
			TimeoutSeconds: defaultLinkTimeout,
		},
		YouTube: YouTube{
			Enabled:        true,
			TimeoutSeconds: defaultYouTubeTimeout,
		},
		Tagging: Tagging{
			RulesPath: defaultTaggingRulesPath,
			MaxTags:   defaultTaggingMaxTags,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Cache: Cache{
			Enabled: true,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			Directory: defaultLogDir,
		},
	}
}
