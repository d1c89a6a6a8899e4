package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newsdiff/internal/domain"
	"newsdiff/internal/normalize"
	"newsdiff/internal/ports"
)

// DiffRenderer produces the visual diff for a changed field. ok is false
// when there is nothing to show.
type DiffRenderer interface {
	Render(ctx context.Context, oldText, newText string) (image []byte, ok bool, err error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.FeedSource
	Store      ports.VersionStore
	Renderer   DiffRenderer
	Dispatcher *Dispatcher
	Logger     *slog.Logger
}

// Pipeline implements one polling run: fetch, per-article change detection
// and notification, then reconciliation of vanished articles.
type Pipeline struct {
	source     ports.FeedSource
	store      ports.VersionStore
	renderer   DiffRenderer
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		renderer:   deps.Renderer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Run executes one polling run. Articles are processed sequentially in feed
// order, each to completion before the next, because thread refs are mutated
// and re-read per article within the run. Per-article failures are logged
// and skipped; only feed-level failures abort the run.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.logger.With("run_id", uuid.NewString())

	articles, err := p.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	logger.Info("run started", "articles", len(articles))

	seen := make(map[string]struct{}, len(articles))
	for _, raw := range articles {
		article, err := normalize.Normalize(raw, time.Now())
		if err != nil {
			logger.Warn("skipping malformed record", "uri", raw.URI, "error", err)
			continue
		}
		seen[article.ID] = struct{}{}

		if err := p.processArticle(ctx, logger, article); err != nil {
			logger.Error("article processing failed", "article_id", article.ID, "error", err)
		}
	}

	if err := p.reconcile(ctx, logger, seen); err != nil {
		logger.Error("reconciliation failed", "error", err)
	}

	logger.Info("run finished")
	return nil
}

func (p *Pipeline) processArticle(ctx context.Context, logger *slog.Logger, article domain.NormalizedArticle) error {
	isNew, err := p.store.IsNew(ctx, article.ID)
	if err != nil {
		return fmt.Errorf("check article: %w", err)
	}

	if isNew {
		if err := p.store.CreateArticle(ctx, article.ID, article.ObservedAt); err != nil {
			return fmt.Errorf("create article: %w", err)
		}
		if _, err := p.store.AppendVersion(ctx, article); err != nil {
			return fmt.Errorf("append first version: %w", err)
		}
		logger.Info("new article tracked", "article_id", article.ID, "url", article.Fields.URL)
		return nil
	}

	// A reappearing article flips back to home the moment it is observed,
	// whether or not its content changed.
	status, err := p.store.GetStatus(ctx, article.ID)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	if status == domain.StatusRemoved {
		if err := p.store.MarkStatus(ctx, article.ID, domain.StatusHome); err != nil {
			return fmt.Errorf("reinstate article: %w", err)
		}
		logger.Info("article reinstated", "article_id", article.ID)
	}

	latest, err := p.store.GetLatestVersion(ctx, article.ID)
	if err != nil {
		return fmt.Errorf("get latest version: %w", err)
	}
	if latest != nil && latest.ContentHash == article.ContentHash {
		return nil
	}

	for _, event := range DetectChanges(latest, article) {
		image, ok, err := p.renderer.Render(ctx, event.OldValue, event.NewValue)
		if err != nil {
			// Rendering failure counts as nothing-to-show for this field
			// this run; other fields and the version append proceed.
			logger.Warn("diff render failed",
				"article_id", event.ArticleID,
				"field", string(event.Field),
				"error", err)
			continue
		}
		if !ok {
			continue
		}
		p.dispatcher.Dispatch(ctx, event, article, image)
	}

	version, err := p.store.AppendVersion(ctx, article)
	if err != nil {
		return fmt.Errorf("append version: %w", err)
	}
	logger.Info("version appended", "article_id", article.ID, "version", version.Version)
	return nil
}

// reconcile marks articles absent from the current fetch as removed.
func (p *Pipeline) reconcile(ctx context.Context, logger *slog.Logger, seen map[string]struct{}) error {
	active, err := p.store.ActiveArticleIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active articles: %w", err)
	}

	for _, id := range active {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := p.store.MarkStatus(ctx, id, domain.StatusRemoved); err != nil {
			return fmt.Errorf("mark removed %s: %w", id, err)
		}
		logger.Info("article removed", "article_id", id)
	}
	return nil
}
