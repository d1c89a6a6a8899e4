package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsdiff/internal/config"
	"newsdiff/internal/ports"
)

// Client talks to the external browser rendering engine: it posts an HTML
// document and receives a cropped raster image sized to the paragraph's
// bounding box.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.RenderEngine = (*Client)(nil)

// NewClient creates a reusable HTTP client for the engine.
func NewClient(cfg config.RendererConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{endpoint: cfg.URL, http: client}
}

// RenderFragment submits the document and returns the PNG bytes.
func (c *Client) RenderFragment(ctx context.Context, html string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"html":     html,
		"selector": "p",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("render engine %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("render engine returned empty image")
	}
	return image, nil
}
