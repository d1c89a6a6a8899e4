package ports

import (
	"context"
	"time"

	"newsdiff/internal/domain"
)

// FeedSource pulls the current list of published articles from upstream.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.RawArticle, error)
}

// VersionStore is the source of truth for article history and thread state.
// Storage errors propagate to the caller; the store gives no implicit retry.
type VersionStore interface {
	// IsNew reports whether no article row exists yet for the id.
	IsNew(ctx context.Context, articleID string) (bool, error)

	// CreateArticle inserts the article row on first sighting. Idempotent.
	CreateArticle(ctx context.Context, articleID string, observedAt time.Time) error

	// GetStatus returns the article's current status.
	GetStatus(ctx context.Context, articleID string) (domain.Status, error)

	// MarkStatus sets the article's status. Idempotent.
	MarkStatus(ctx context.Context, articleID string, status domain.Status) error

	// GetLatestVersion returns the highest-numbered version for the article,
	// or nil when none exists.
	GetLatestVersion(ctx context.Context, articleID string) (*domain.ArticleVersion, error)

	// AppendVersion persists a new version row numbered latest+1 (1 when no
	// prior version exists). Prior rows are never touched.
	AppendVersion(ctx context.Context, article domain.NormalizedArticle) (domain.ArticleVersion, error)

	// ActiveArticleIDs lists ids whose status is home.
	ActiveArticleIDs(ctx context.Context) ([]string, error)

	// GetThreadRef returns the thread anchor for the article on the platform,
	// or nil when no post was ever made there.
	GetThreadRef(ctx context.Context, articleID, platform string) (*domain.ThreadRef, error)

	// UpsertThreadRef records the newest post ref. The root ref is written
	// once on first insert and never overwritten afterwards.
	UpsertThreadRef(ctx context.Context, ref domain.ThreadRef) error
}

// RenderEngine is the external browser-based renderer: it accepts a full
// HTML document containing a single marked-up paragraph and returns a
// cropped raster image sized to the paragraph's bounding box.
type RenderEngine interface {
	RenderFragment(ctx context.Context, html string) ([]byte, error)
}

// Platform is one configured social destination. Adapters own their auth,
// rate limiting, and wire protocol.
type Platform interface {
	Name() string

	// CreateRootPost publishes the stand-alone post that anchors a new
	// thread: a link-preview card where the platform supports one, a plain
	// text post with the URL otherwise.
	CreateRootPost(ctx context.Context, article domain.NormalizedArticle) (domain.PostRef, error)

	// UploadMedia stores the image bytes and returns an adapter-opaque ref.
	UploadMedia(ctx context.Context, data []byte) (domain.MediaRef, error)

	// CreateReply posts text plus the uploaded image as a reply to parent,
	// threaded under root.
	CreateReply(ctx context.Context, text string, media domain.MediaRef, altText string, parent, root domain.PostRef) (domain.PostRef, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
