package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"

	"newsdiff/internal/config"
	"newsdiff/internal/domain"
	"newsdiff/internal/ports"
)

// PlatformName identifies this adapter in config and thread-ref rows.
const PlatformName = "twitter"

const (
	defaultAPIBase    = "https://api.twitter.com/1.1"
	defaultUploadBase = "https://upload.twitter.com/1.1"
)

// Client posts to the Twitter v1.1 API with OAuth1-signed requests.
type Client struct {
	http       *http.Client
	logger     *slog.Logger
	apiBase    string
	uploadBase string
}

var _ ports.Platform = (*Client)(nil)

// NewClient builds an OAuth1-signed HTTP client from credentials.
func NewClient(cfg config.TwitterConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	return &Client{
		http:       oauthCfg.Client(oauth1.NoContext, token),
		logger:     logger,
		apiBase:    defaultAPIBase,
		uploadBase: defaultUploadBase,
	}
}

// Name identifies the adapter.
func (c *Client) Name() string { return PlatformName }

type statusResponse struct {
	IDStr string `json:"id_str"`
}

// CreateRootPost publishes a plain text post carrying the article URL;
// Twitter expands it into a link preview on its own.
func (c *Client) CreateRootPost(ctx context.Context, article domain.NormalizedArticle) (domain.PostRef, error) {
	return c.updateStatus(ctx, url.Values{"status": {article.Fields.URL}})
}

// UploadMedia pushes the image through the chunked-upload-less simple upload
// endpoint and returns the media id.
func (c *Client) UploadMedia(ctx context.Context, data []byte) (domain.MediaRef, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", "diff.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"/media/upload.json", &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	if resp.MediaIDString == "" {
		return "", fmt.Errorf("upload media: empty media id")
	}
	return domain.MediaRef(resp.MediaIDString), nil
}

// CreateReply posts the change text with the diff image as a reply to
// parent. Twitter threads implicitly, so root is not sent on the wire. Alt
// text is attached best-effort via the media metadata endpoint.
func (c *Client) CreateReply(ctx context.Context, text string, media domain.MediaRef, altText string, parent, root domain.PostRef) (domain.PostRef, error) {
	if altText != "" {
		if err := c.setAltText(ctx, string(media), altText); err != nil {
			c.logger.Warn("media alt text rejected", "error", err)
		}
	}

	form := url.Values{
		"status":                {text},
		"media_ids":             {string(media)},
		"in_reply_to_status_id": {parent.URI},
	}
	return c.updateStatus(ctx, form)
}

func (c *Client) updateStatus(ctx context.Context, form url.Values) (domain.PostRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/statuses/update.json", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.PostRef{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp statusResponse
	if err := c.do(req, &resp); err != nil {
		return domain.PostRef{}, fmt.Errorf("update status: %w", err)
	}
	if resp.IDStr == "" {
		return domain.PostRef{}, fmt.Errorf("update status: empty id in response")
	}
	return domain.PostRef{URI: resp.IDStr}, nil
}

func (c *Client) setAltText(ctx context.Context, mediaID, altText string) error {
	body, err := json.Marshal(map[string]any{
		"media_id": mediaID,
		"alt_text": map[string]string{"text": altText},
	})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"/media/metadata/create.json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twitter returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
