package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsdiff/internal/domain"
)

// maxThumbnailWidth is the ceiling for thumbnail candidates. Platforms
// re-encode anything wider, so the largest image at or under the ceiling
// gives the sharpest result without wasted upload bandwidth.
const maxThumbnailWidth = 1024

// ErrNoIdentifier signals a record without a usable stable id.
var ErrNoIdentifier = fmt.Errorf("record has no usable identifier")

// Normalize canonicalizes a raw feed record into a comparable shape and
// computes its content hash. Records without a stable identifier, or whose
// identifier carries markup fragments from an upstream parse failure, are
// rejected.
func Normalize(raw domain.RawArticle, observedAt time.Time) (domain.NormalizedArticle, error) {
	id := strings.TrimSpace(raw.URI)
	if id == "" || strings.ContainsAny(id, "<>") {
		return domain.NormalizedArticle{}, fmt.Errorf("%w: %q", ErrNoIdentifier, raw.URI)
	}

	fields := domain.Fields{
		URL:          strings.TrimSpace(raw.URL),
		Title:        StripMarkup(raw.Title),
		Abstract:     StripMarkup(raw.Abstract),
		Byline:       StripMarkup(raw.Byline),
		Kicker:       StripMarkup(raw.Kicker),
		ThumbnailURL: pickThumbnail(raw.Multimedia),
	}

	return domain.NormalizedArticle{
		ID:          id,
		Fields:      fields,
		ContentHash: ContentHash(fields),
		ObservedAt:  observedAt,
	}, nil
}

// StripMarkup removes all HTML tags from a free-text field and collapses
// whitespace, so cosmetic markup changes never look like content changes.
func StripMarkup(value string) string {
	if !strings.ContainsAny(value, "<>&") {
		return strings.Join(strings.Fields(value), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return strings.Join(strings.Fields(value), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ContentHash digests the tracked fields sorted by name, so key ordering
// never affects the result. Collision resistance only needs to make the
// digest a safe equality proxy.
func ContentHash(fields domain.Fields) string {
	pairs := map[string]string{
		"abstract":      fields.Abstract,
		"byline":        fields.Byline,
		"kicker":        fields.Kicker,
		"thumbnail_url": fields.ThumbnailURL,
		"title":         fields.Title,
		"url":           fields.URL,
	}

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(pairs[name]))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// pickThumbnail returns the largest candidate image whose width is at or
// under the ceiling, or empty when no candidate qualifies.
func pickThumbnail(media []domain.Multimedia) string {
	best := ""
	bestWidth := -1
	for _, m := range media {
		if m.Type != "image" || m.URL == "" {
			continue
		}
		if m.Width > maxThumbnailWidth {
			continue
		}
		if m.Width > bestWidth {
			best = m.URL
			bestWidth = m.Width
		}
	}
	return best
}
