package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/textutil"
)

// Config holds YouTube lookup settings. APIKey is optional; without it the
// client falls back to the public oEmbed endpoint, which omits duration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// Video is the metadata attached to an enriched YouTube link.
type Video struct {
	ID       string
	URL      string
	Title    string
	Channel  string
	Duration time.Duration
}

// Client resolves YouTube video metadata and transcripts.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	oembedURL    string
	apiURL       string
	timedTextURL string
	logger       *slog.Logger
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

// WithEndpoints redirects the oEmbed, Data API, and timedtext endpoints.
func WithEndpoints(oembed, api, timedText string) Option {
	return func(c *Client) {
		if oembed != "" {
			c.oembedURL = oembed
		}
		if api != "" {
			c.apiURL = api
		}
		if timedText != "" {
			c.timedTextURL = timedText
		}
	}
}

// NewClient builds a YouTube client from config.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		oembedURL:    "https://www.youtube.com/oembed",
		apiURL:       "https://www.googleapis.com/youtube/v3",
		timedTextURL: "https://video.google.com/timedtext",
		logger:       logging.NewComponentLogger(logger, "youtube"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup resolves metadata for a YouTube URL.
func (c *Client) Lookup(ctx context.Context, videoURL string) (Video, error) {
	id, ok := textutil.YouTubeVideoID(videoURL)
	if !ok {
		return Video{}, services.Wrap(services.ErrValidation, "youtube", "lookup", "not a YouTube URL", nil)
	}
	video := Video{ID: id, URL: videoURL}
	if c.cfg.APIKey != "" {
		return c.lookupDataAPI(ctx, video)
	}
	return c.lookupOEmbed(ctx, video)
}

func (c *Client) lookupDataAPI(ctx context.Context, video Video) (Video, error) {
	query := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {video.ID},
		"key":  {c.cfg.APIKey},
	}
	endpoint := strings.TrimRight(c.apiURL, "/") + "/videos?" + query.Encode()

	var decoded struct {
		Items []struct {
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return video, err
	}
	if len(decoded.Items) == 0 {
		return video, services.Wrap(services.ErrNotFound, "youtube", "lookup", "video not found", nil)
	}
	item := decoded.Items[0]
	video.Title = item.Snippet.Title
	video.Channel = item.Snippet.ChannelTitle
	video.Duration = parseISODuration(item.ContentDetails.Duration)
	return video, nil
}

func (c *Client) lookupOEmbed(ctx context.Context, video Video) (Video, error) {
	query := url.Values{
		"url":    {"https://www.youtube.com/watch?v=" + video.ID},
		"format": {"json"},
	}
	endpoint := c.oembedURL + "?" + query.Encode()

	var decoded struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return video, err
	}
	video.Title = decoded.Title
	video.Channel = decoded.AuthorName
	return video, nil
}

// Transcript fetches the English caption track. A video without captions
// returns a not-found error rather than an empty transcript.
func (c *Client) Transcript(ctx context.Context, videoID string) (string, error) {
	query := url.Values{"lang": {"en"}, "v": {videoID}}
	endpoint := c.timedTextURL + "?" + query.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", services.Wrap(services.ErrNotFound, "youtube", "transcript", "no caption track available", nil)
	}

	var doc struct {
		Texts []struct {
			Value string `xml:",chardata"`
		} `xml:"text"`
	}
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "youtube", "transcript", "unparseable caption payload", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if v := strings.TrimSpace(t.Value); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "", services.Wrap(services.ErrNotFound, "youtube", "transcript", "no caption track available", nil)
	}
	transcript := strings.Join(parts, " ")
	c.logger.Debug("transcript fetched",
		logging.String("video_id", videoID),
		logging.Int("chars", len(transcript)))
	return transcript, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrExternalTool, "youtube", "decode response", "invalid JSON payload", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "youtube", "build request", "invalid endpoint", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, services.Wrap(services.ErrTimeout, "youtube", "fetch", "request timed out", err)
		}
		return nil, services.Wrap(services.ErrTransient, "youtube", "fetch", "endpoint unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "youtube", "fetch", "video not found", nil)
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrTransient, "youtube", "fetch",
			fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrExternalTool, "youtube", "fetch",
			fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode), nil)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts the Data API duration form (PT1H2M3S) to a
// time.Duration. Malformed input yields zero.
func parseISODuration(value string) time.Duration {
	match := isoDurationPattern.FindStringSubmatch(value)
	if match == nil {
		return 0
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(match[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(match[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(match[3]))
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
