package platform

import (
	"context"
	"fmt"
	"log/slog"

	"newsdiff/internal/domain"
	"newsdiff/internal/ports"
)

// DryRun wraps an adapter and short-circuits every posting call to a no-op
// returning synthetic success, for safe rehearsal against live data.
type DryRun struct {
	inner  ports.Platform
	logger *slog.Logger
	seq    int
}

var _ ports.Platform = (*DryRun)(nil)

// NewDryRun decorates the adapter.
func NewDryRun(inner ports.Platform, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{inner: inner, logger: logger}
}

// Name reports the wrapped adapter's name so thread refs stay consistent.
func (d *DryRun) Name() string { return d.inner.Name() }

// CreateRootPost logs the would-be post and returns a synthetic ref.
func (d *DryRun) CreateRootPost(ctx context.Context, article domain.NormalizedArticle) (domain.PostRef, error) {
	ref := d.nextRef("root")
	d.logger.Info("dry-run root post",
		"platform", d.inner.Name(),
		"url", article.Fields.URL,
		"ref", ref.URI)
	return ref, nil
}

// UploadMedia returns a synthetic media ref without uploading anything.
func (d *DryRun) UploadMedia(ctx context.Context, data []byte) (domain.MediaRef, error) {
	d.seq++
	d.logger.Info("dry-run media upload",
		"platform", d.inner.Name(),
		"bytes", len(data))
	return domain.MediaRef(fmt.Sprintf("dryrun-media-%d", d.seq)), nil
}

// CreateReply logs the would-be reply and returns a synthetic ref.
func (d *DryRun) CreateReply(ctx context.Context, text string, media domain.MediaRef, altText string, parent, root domain.PostRef) (domain.PostRef, error) {
	ref := d.nextRef("post")
	d.logger.Info("dry-run reply",
		"platform", d.inner.Name(),
		"text", text,
		"alt_text", altText,
		"parent", parent.URI,
		"root", root.URI,
		"ref", ref.URI)
	return ref, nil
}

func (d *DryRun) nextRef(kind string) domain.PostRef {
	d.seq++
	return domain.PostRef{URI: fmt.Sprintf("dryrun-%s-%s-%d", d.inner.Name(), kind, d.seq)}
}
