package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"newsdiff/internal/domain"
	"newsdiff/internal/ports"
)

const altTextValueLimit = 120

// Dispatcher posts one change notification per configured platform,
// maintaining per-article reply threads. Platforms are independent: one
// platform's failure never blocks another, and never blocks version-store
// progress for the article.
type Dispatcher struct {
	store     ports.VersionStore
	platforms []ports.Platform
	logger    *slog.Logger
}

// NewDispatcher wires the store and the ordered platform list.
func NewDispatcher(store ports.VersionStore, platforms []ports.Platform, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, platforms: platforms, logger: logger}
}

// Dispatch delivers one change event, already accompanied by its rendered
// image, to every platform in order. Failures are logged and skipped; a
// change missed here is not retried on later runs because the version row
// advances regardless.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.ChangeEvent, article domain.NormalizedArticle, image []byte) {
	text := "Change in " + event.Field.Label()
	altText := buildAltText(event)

	for _, platform := range d.platforms {
		if err := d.dispatchTo(ctx, platform, event, article, text, altText, image); err != nil {
			d.logger.Error("platform dispatch failed",
				"platform", platform.Name(),
				"article_id", event.ArticleID,
				"field", string(event.Field),
				"error", err)
		}
	}
}

func (d *Dispatcher) dispatchTo(ctx context.Context, platform ports.Platform, event domain.ChangeEvent, article domain.NormalizedArticle, text, altText string, image []byte) error {
	ref, err := d.store.GetThreadRef(ctx, event.ArticleID, platform.Name())
	if err != nil {
		return fmt.Errorf("resolve thread ref: %w", err)
	}

	if ref == nil {
		root, err := platform.CreateRootPost(ctx, article)
		if err != nil {
			return fmt.Errorf("create root post: %w", err)
		}
		ref = &domain.ThreadRef{
			ArticleID: event.ArticleID,
			Platform:  platform.Name(),
			LastPost:  root,
			RootPost:  root,
		}
		if err := d.store.UpsertThreadRef(ctx, *ref); err != nil {
			return fmt.Errorf("persist root ref: %w", err)
		}
		d.logger.Info("thread started",
			"platform", platform.Name(),
			"article_id", event.ArticleID,
			"root", root.URI)
	}

	media, err := platform.UploadMedia(ctx, image)
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}

	post, err := platform.CreateReply(ctx, text, media, altText, ref.LastPost, ref.RootPost)
	if err != nil {
		return fmt.Errorf("create reply: %w", err)
	}

	ref.LastPost = post
	if err := d.store.UpsertThreadRef(ctx, *ref); err != nil {
		return fmt.Errorf("persist thread ref: %w", err)
	}

	d.logger.Info("change posted",
		"platform", platform.Name(),
		"article_id", event.ArticleID,
		"field", string(event.Field),
		"post", post.URI)
	return nil
}

func buildAltText(event domain.ChangeEvent) string {
	return fmt.Sprintf("%s changed from %q to %q",
		event.Field.Label(),
		truncate(event.OldValue, altTextValueLimit),
		truncate(event.NewValue, altTextValueLimit))
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
