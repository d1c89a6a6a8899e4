package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsdiff/internal/config"
	"newsdiff/internal/domain"
	"newsdiff/internal/ports"
)

// PlatformName identifies this adapter in config and thread-ref rows.
const PlatformName = "bluesky"

// Client posts to Bluesky over atproto XRPC. Sessions are created lazily on
// first use and reused for the rest of the run.
type Client struct {
	host     string
	handle   string
	password string
	http     *http.Client
	logger   *slog.Logger

	accessJwt string
	did       string
}

var _ ports.Platform = (*Client)(nil)

// NewClient registers credentials; no network call happens until the first
// post.
func NewClient(cfg config.BlueskyConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		host = "https://bsky.social"
	}
	return &Client{
		host:     host,
		handle:   cfg.Handle,
		password: cfg.Password,
		http:     client,
		logger:   logger,
	}
}

// Name identifies the adapter.
func (c *Client) Name() string { return PlatformName }

type strongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type postRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Reply     *replyRef `json:"reply,omitempty"`
	Embed     any       `json:"embed,omitempty"`
}

type replyRef struct {
	Root   strongRef `json:"root"`
	Parent strongRef `json:"parent"`
}

type externalEmbed struct {
	Type     string         `json:"$type"`
	External externalDetail `json:"external"`
}

type externalDetail struct {
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Thumb       json.RawMessage `json:"thumb,omitempty"`
}

type imagesEmbed struct {
	Type   string       `json:"$type"`
	Images []imageEntry `json:"images"`
}

type imageEntry struct {
	Image json.RawMessage `json:"image"`
	Alt   string          `json:"alt"`
}

// CreateRootPost publishes an empty-text post carrying a website preview
// card for the article, anchoring a new thread.
func (c *Client) CreateRootPost(ctx context.Context, article domain.NormalizedArticle) (domain.PostRef, error) {
	embed := externalEmbed{
		Type: "app.bsky.embed.external",
		External: externalDetail{
			URI:         article.Fields.URL,
			Title:       article.Fields.Title,
			Description: article.Fields.Abstract,
		},
	}

	if article.Fields.ThumbnailURL != "" {
		thumb, err := c.uploadThumbnail(ctx, article.Fields.ThumbnailURL)
		if err != nil {
			// A card without a thumbnail is still a valid root.
			c.logger.Warn("thumbnail upload failed", "url", article.Fields.ThumbnailURL, "error", err)
		} else {
			embed.External.Thumb = thumb
		}
	}

	return c.createPost(ctx, postRecord{
		Type:      "app.bsky.feed.post",
		Text:      "",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Embed:     embed,
	})
}

// UploadMedia uploads the image bytes as a blob; the returned ref is the
// blob JSON consumed by CreateReply.
func (c *Client) UploadMedia(ctx context.Context, data []byte) (domain.MediaRef, error) {
	blob, err := c.uploadBlob(ctx, data)
	if err != nil {
		return "", err
	}
	return domain.MediaRef(blob), nil
}

// CreateReply posts the change text with the diff image attached, threaded
// under root with parent as the direct ancestor.
func (c *Client) CreateReply(ctx context.Context, text string, media domain.MediaRef, altText string, parent, root domain.PostRef) (domain.PostRef, error) {
	record := postRecord{
		Type:      "app.bsky.feed.post",
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Reply: &replyRef{
			Root:   strongRef{URI: root.URI, CID: root.CID},
			Parent: strongRef{URI: parent.URI, CID: parent.CID},
		},
		Embed: imagesEmbed{
			Type:   "app.bsky.embed.images",
			Images: []imageEntry{{Image: json.RawMessage(media), Alt: altText}},
		},
	}
	return c.createPost(ctx, record)
}

func (c *Client) createPost(ctx context.Context, record postRecord) (domain.PostRef, error) {
	if err := c.ensureSession(ctx); err != nil {
		return domain.PostRef{}, err
	}

	body, err := json.Marshal(map[string]any{
		"repo":       c.did,
		"collection": "app.bsky.feed.post",
		"record":     record,
	})
	if err != nil {
		return domain.PostRef{}, fmt.Errorf("marshal record: %w", err)
	}

	var resp strongRef
	if err := c.xrpc(ctx, "com.atproto.repo.createRecord", "application/json", bytes.NewReader(body), &resp); err != nil {
		return domain.PostRef{}, fmt.Errorf("create record: %w", err)
	}
	return domain.PostRef{URI: resp.URI, CID: resp.CID}, nil
}

func (c *Client) uploadThumbnail(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build thumbnail request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail fetch returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	return c.uploadBlob(ctx, data)
}

func (c *Client) uploadBlob(ctx context.Context, data []byte) (json.RawMessage, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	var resp struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := c.xrpc(ctx, "com.atproto.repo.uploadBlob", "image/png", bytes.NewReader(data), &resp); err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	if len(resp.Blob) == 0 {
		return nil, fmt.Errorf("upload blob: empty blob in response")
	}
	return resp.Blob, nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	if c.accessJwt != "" {
		return nil
	}
	if c.handle == "" || c.password == "" {
		return fmt.Errorf("bluesky client misconfigured")
	}

	body, err := json.Marshal(map[string]string{
		"identifier": c.handle,
		"password":   c.password,
	})
	if err != nil {
		return fmt.Errorf("marshal session request: %w", err)
	}

	var resp struct {
		AccessJwt string `json:"accessJwt"`
		Did       string `json:"did"`
	}
	if err := c.xrpc(ctx, "com.atproto.server.createSession", "application/json", bytes.NewReader(body), &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.accessJwt = resp.AccessJwt
	c.did = resp.Did
	return nil
}

func (c *Client) xrpc(ctx context.Context, method, contentType string, body io.Reader, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/xrpc/"+method, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %s: %s", method, resp.Status, strings.TrimSpace(string(detail)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
