package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdiff/internal/config"
)

const samplePayload = `{
  "results": [
    {
      "uri": "nyt://article/abc",
      "url": "https://www.nytimes.com/2026/08/27/us/story.html",
      "title": "A Headline",
      "abstract": "Something happened.",
      "byline": "By Reporter",
      "kicker": "News",
      "multimedia": [
        {"url": "https://img/large.jpg", "type": "image", "width": 600, "height": 400}
      ]
    }
  ]
}`

func newTestClient(server *httptest.Server, maxRetries int) *Client {
	return NewClient(config.FeedConfig{
		URL:        server.URL,
		APIKey:     "test-key",
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
	}, server.Client(), nil)
}

func TestFetchParsesResults(t *testing.T) {
	t.Parallel()

	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api-key")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	articles, err := newTestClient(server, 3).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, articles, 1)
	assert.Equal(t, "nyt://article/abc", articles[0].URI)
	assert.Equal(t, "A Headline", articles[0].Title)
	require.Len(t, articles[0].Multimedia, 1)
	assert.Equal(t, 600, articles[0].Multimedia[0].Width)
}

func TestFetchMissingResultsKeyIsEmptyFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	}))
	defer server.Close()

	articles, err := newTestClient(server, 3).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestFetchInvalidJSONFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server, 3).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchHTTPErrorIsTerminal(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server, 5).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-transient failures must not be retried")
}

func TestFetchRetriesConnectionReset(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			// Close the connection without a response; the client sees a
			// dropped connection.
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			return
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	articles, err := newTestClient(server, 5).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, 3, calls)
}
