package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"newsdiff/internal/config"
	"newsdiff/internal/domain"
	"newsdiff/internal/ports"
)

// Client fetches the top-stories feed with a bounded retry budget.
// Only connection resets are retried; anything else fails the run.
type Client struct {
	url        string
	apiKey     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ ports.FeedSource = (*Client)(nil)

// NewClient wires an HTTP client from feed configuration.
func NewClient(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		client:     client,
		maxRetries: maxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

type feedMedia struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type feedArticle struct {
	URI        string      `json:"uri"`
	URL        string      `json:"url"`
	Title      string      `json:"title"`
	Abstract   string      `json:"abstract"`
	Byline     string      `json:"byline"`
	Kicker     string      `json:"kicker"`
	Multimedia []feedMedia `json:"multimedia"`
}

type feedResponse struct {
	Results []feedArticle `json:"results"`
}

// Fetch retrieves the current article list. An absent results key is an
// empty feed, not an error; a payload that is not valid JSON is.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawArticle, error) {
	body, err := c.getWithRetry(ctx)
	if err != nil {
		return nil, err
	}

	var payload feedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse feed payload: %w", err)
	}

	articles := make([]domain.RawArticle, 0, len(payload.Results))
	for _, a := range payload.Results {
		media := make([]domain.Multimedia, 0, len(a.Multimedia))
		for _, m := range a.Multimedia {
			media = append(media, domain.Multimedia{URL: m.URL, Type: m.Type, Width: m.Width, Height: m.Height})
		}
		articles = append(articles, domain.RawArticle{
			URI:        a.URI,
			URL:        a.URL,
			Title:      a.Title,
			Abstract:   a.Abstract,
			Byline:     a.Byline,
			Kicker:     a.Kicker,
			Multimedia: media,
		})
	}
	return articles, nil
}

func (c *Client) getWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, err := c.get(ctx)
		if err == nil {
			return body, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
		if c.logger != nil {
			c.logger.Warn("transient feed failure", "attempt", attempt, "error", err)
		}
		if attempt == c.maxRetries {
			break
		}
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("feed fetch: retries exhausted: %w", lastErr)
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	target, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url %s: %w", c.url, err)
	}
	query := target.Query()
	if c.apiKey != "" {
		query.Set("api-key", c.apiKey)
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "newsdiff/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("feed returned empty body")
	}
	return body, nil
}

// isTransient matches the failures worth retrying: the peer dropped the
// connection. Everything else (DNS, TLS, HTTP status) is terminal.
func isTransient(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		strings.Contains(err.Error(), "connection reset")
}
