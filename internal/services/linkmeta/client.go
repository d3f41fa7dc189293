package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"quill/internal/logging"
	"quill/internal/services"
)

// Config holds fetch settings for link metadata.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Metadata describes a fetched web page.
type Metadata struct {
	URL         string
	Title       string
	Description string
	SiteName    string
}

// Client fetches pages and extracts their metadata.
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

// NewClient builds a metadata client from config.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewComponentLogger(logger, "linkmeta"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const maxBodyBytes = 2 << 20

// Fetch downloads the page and extracts title, description, and site name.
// OpenGraph values win over plain HTML equivalents. Non-HTML responses yield
// metadata with only the URL filled in.
func (c *Client) Fetch(ctx context.Context, pageURL string) (Metadata, error) {
	meta := Metadata{URL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return meta, services.Wrap(services.ErrValidation, "link-metadata", "build request", "invalid URL", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return meta, services.Wrap(services.ErrTimeout, "link-metadata", "fetch", "request timed out", err)
		}
		return meta, services.Wrap(services.ErrTransient, "link-metadata", "fetch", "site unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return meta, services.Wrap(services.ErrTransient, "link-metadata", "fetch",
			fmt.Sprintf("site returned HTTP %d", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusBadRequest:
		return meta, services.Wrap(services.ErrValidation, "link-metadata", "fetch",
			fmt.Sprintf("site returned HTTP %d", resp.StatusCode), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		c.logger.Debug("skipping non-html page", logging.String("url", pageURL), logging.String("content_type", contentType))
		return meta, nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return meta, services.Wrap(services.ErrExternalTool, "link-metadata", "parse", "unparseable HTML", err)
	}

	meta.Title = firstNonEmpty(
		metaProperty(doc, "og:title"),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	meta.Description = firstNonEmpty(
		metaProperty(doc, "og:description"),
		metaName(doc, "description"),
	)
	meta.SiteName = metaProperty(doc, "og:site_name")
	return meta, nil
}

func metaProperty(doc *goquery.Document, property string) string {
	value, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return strings.TrimSpace(value)
}

func metaName(doc *goquery.Document, name string) string {
	value, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First().Attr("content")
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
