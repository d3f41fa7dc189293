package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/services"
)

// Config holds connection settings for the transcription server.
type Config struct {
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

// Client talks to an OpenAI-compatible audio transcription endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a transcription client from config.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewComponentLogger(logger, "whisper"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the media file and returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	file, err := os.Open(mediaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "transcription", "open media", "media file missing", err)
		}
		return "", services.Wrap(services.ErrExternalTool, "transcription", "open media", "cannot read media file", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(mediaPath))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcription", "build request", "multipart encode failed", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcription", "build request", "multipart encode failed", err)
	}
	_ = writer.WriteField("model", c.cfg.Model)
	if c.cfg.Language != "" {
		_ = writer.WriteField("language", c.cfg.Language)
	}
	_ = writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcription", "build request", "multipart encode failed", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcription", "build request", "invalid endpoint", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcription", "read response", "truncated response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrExternalTool
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			marker = services.ErrTransient
		}
		return "", services.Wrap(marker, "transcription", "transcribe",
			fmt.Sprintf("server returned HTTP %d", resp.StatusCode), nil)
	}

	var decoded transcriptionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcription", "decode response", "invalid JSON payload", err)
	}
	text := strings.TrimSpace(decoded.Text)
	c.logger.Debug("transcription completed",
		logging.String("media", filepath.Base(mediaPath)),
		logging.Int("chars", len(text)),
		logging.Duration("elapsed", time.Since(start)))
	return text, nil
}

// HealthCheck verifies the server answers its model listing endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "transcription", "health check", "invalid base URL", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalTool, "transcription", "health check",
			fmt.Sprintf("server returned HTTP %d", resp.StatusCode), nil)
	}
	return nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "transcription", "transcribe", "request timed out", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "transcription", "transcribe", "request aborted", err)
	}
	return services.Wrap(services.ErrTransient, "transcription", "transcribe", "server unreachable", err)
}
