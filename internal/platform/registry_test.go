package platform

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdiff/internal/domain"
)

type stubAdapter struct {
	name  string
	calls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) CreateRootPost(ctx context.Context, article domain.NormalizedArticle) (domain.PostRef, error) {
	s.calls++
	return domain.PostRef{URI: "real-root"}, nil
}

func (s *stubAdapter) UploadMedia(ctx context.Context, data []byte) (domain.MediaRef, error) {
	s.calls++
	return "real-media", nil
}

func (s *stubAdapter) CreateReply(ctx context.Context, text string, media domain.MediaRef, altText string, parent, root domain.PostRef) (domain.PostRef, error) {
	s.calls++
	return domain.PostRef{URI: "real-post"}, nil
}

func TestRegistryOrderedPreservesOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubAdapter{name: "twitter"})
	reg.Register(&stubAdapter{name: "bluesky"})

	ordered := reg.Ordered([]string{"bluesky", "mastodon", "twitter"})
	require.Len(t, ordered, 2)
	assert.Equal(t, "bluesky", ordered[0].Name())
	assert.Equal(t, "twitter", ordered[1].Name())
}

func TestRegistryResolveUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Resolve("mastodon")
	assert.Error(t, err)
}

func TestDryRunNeverTouchesInner(t *testing.T) {
	t.Parallel()

	inner := &stubAdapter{name: "bluesky"}
	dry := NewDryRun(inner, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	root, err := dry.CreateRootPost(ctx, domain.NormalizedArticle{})
	require.NoError(t, err)
	media, err := dry.UploadMedia(ctx, []byte("png"))
	require.NoError(t, err)
	reply, err := dry.CreateReply(ctx, "Change in Title", media, "", root, root)
	require.NoError(t, err)

	assert.Zero(t, inner.calls)
	assert.Equal(t, "bluesky", dry.Name())
	assert.NotEmpty(t, root.URI)
	assert.NotEmpty(t, reply.URI)
	assert.NotEqual(t, root.URI, reply.URI)
}
