package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdiff/internal/domain"
)

func version(fields domain.Fields, hash string) *domain.ArticleVersion {
	return &domain.ArticleVersion{ArticleID: "nyt://article/abc", Version: 1, Fields: fields, ContentHash: hash}
}

func fresh(fields domain.Fields, hash string) domain.NormalizedArticle {
	return domain.NormalizedArticle{ID: "nyt://article/abc", Fields: fields, ContentHash: hash}
}

func TestDetectChangesBrandNew(t *testing.T) {
	t.Parallel()

	events := DetectChanges(nil, fresh(domain.Fields{Title: "New"}, "h1"))
	assert.Empty(t, events)
}

func TestDetectChangesIdenticalHash(t *testing.T) {
	t.Parallel()

	f := domain.Fields{Title: "Same"}
	events := DetectChanges(version(f, "h1"), fresh(f, "h1"))
	assert.Empty(t, events)
}

func TestDetectChangesFixedOrder(t *testing.T) {
	t.Parallel()

	old := domain.Fields{
		URL:      "https://www.nytimes.com/2026/08/27/us/one.html",
		Title:    "Old Title",
		Abstract: "Old abstract.",
		Kicker:   "Old Kicker",
	}
	updated := domain.Fields{
		URL:      "https://www.nytimes.com/2026/08/27/us/two.html",
		Title:    "New Title",
		Abstract: "New abstract.",
		Kicker:   "New Kicker",
	}

	events := DetectChanges(version(old, "h1"), fresh(updated, "h2"))
	require.Len(t, events, 4)
	assert.Equal(t, domain.FieldURL, events[0].Field)
	assert.Equal(t, domain.FieldTitle, events[1].Field)
	assert.Equal(t, domain.FieldAbstract, events[2].Field)
	assert.Equal(t, domain.FieldKicker, events[3].Field)
}

func TestDetectChangesURLPathOnly(t *testing.T) {
	t.Parallel()

	old := domain.Fields{URL: "https://www.nytimes.com/2026/08/27/us/story.html", Title: "T"}
	updated := domain.Fields{URL: "http://nytimes.com/2026/08/27/us/story.html?smid=tw-share", Title: "T2"}

	events := DetectChanges(version(old, "h1"), fresh(updated, "h2"))
	require.Len(t, events, 1)
	assert.Equal(t, domain.FieldTitle, events[0].Field)
}

func TestDetectChangesURLPathDiffers(t *testing.T) {
	t.Parallel()

	old := domain.Fields{URL: "https://www.nytimes.com/us/one.html"}
	updated := domain.Fields{URL: "https://www.nytimes.com/us/two.html"}

	events := DetectChanges(version(old, "h1"), fresh(updated, "h2"))
	require.Len(t, events, 1)
	assert.Equal(t, domain.FieldURL, events[0].Field)
	assert.Equal(t, old.URL, events[0].OldValue)
	assert.Equal(t, updated.URL, events[0].NewValue)
}

func TestDetectChangesSkipsEmptyAndTrimEqual(t *testing.T) {
	t.Parallel()

	old := domain.Fields{Title: "Same Title ", Kicker: "", Abstract: "Old"}
	updated := domain.Fields{Title: " Same Title", Kicker: "Breaking", Abstract: ""}

	// Kicker gains a value from empty, abstract loses its value, title only
	// differs in whitespace: none of these should notify.
	events := DetectChanges(version(old, "h1"), fresh(updated, "h2"))
	assert.Empty(t, events)
}

func TestDetectChangesIgnoresBylineAndThumbnail(t *testing.T) {
	t.Parallel()

	old := domain.Fields{Title: "T", Byline: "By A", ThumbnailURL: "https://img/1.jpg"}
	updated := domain.Fields{Title: "T", Byline: "By B", ThumbnailURL: "https://img/2.jpg"}

	events := DetectChanges(version(old, "h1"), fresh(updated, "h2"))
	assert.Empty(t, events)
}
