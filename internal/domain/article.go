package domain

import "time"

// Status is the current placement of an article relative to the feed.
type Status string

const (
	StatusHome    Status = "home"
	StatusRemoved Status = "removed"
)

// Article is one tracked story, identified by the source-assigned id.
// Rows are created on first sighting and never deleted; only Status changes.
type Article struct {
	ID        string
	Status    Status
	CreatedAt time.Time
}

// Fields is the tracked field set of an article snapshot.
type Fields struct {
	URL          string
	Title        string
	Abstract     string
	Byline       string
	Kicker       string
	ThumbnailURL string
}

// RawArticle is one record as returned by the feed, before normalization.
type RawArticle struct {
	URI        string
	URL        string
	Title      string
	Abstract   string
	Byline     string
	Kicker     string
	Multimedia []Multimedia
}

// Multimedia is one image candidate attached to a raw feed record.
type Multimedia struct {
	URL    string
	Type   string
	Width  int
	Height int
}

// NormalizedArticle is a canonicalized record ready for comparison.
type NormalizedArticle struct {
	ID          string
	Fields      Fields
	ContentHash string
	ObservedAt  time.Time
}

// ArticleVersion is one observed, hash-distinct snapshot. Immutable once
// written; a new difference always produces a new row.
type ArticleVersion struct {
	ArticleID   string
	Version     int
	Fields      Fields
	ContentHash string
	ObservedAt  time.Time
}

// ChangeField names a tracked field that participates in notifications.
type ChangeField string

const (
	FieldURL      ChangeField = "url"
	FieldTitle    ChangeField = "title"
	FieldAbstract ChangeField = "abstract"
	FieldKicker   ChangeField = "kicker"
)

// Label returns the human-readable field name used in post text.
func (f ChangeField) Label() string {
	switch f {
	case FieldURL:
		return "URL"
	case FieldTitle:
		return "Title"
	case FieldAbstract:
		return "Abstract"
	case FieldKicker:
		return "Kicker"
	}
	return string(f)
}

// ChangeEvent is one field-level difference between two successive versions.
// Never persisted; it only drives dispatch within a single run.
type ChangeEvent struct {
	ArticleID string
	Field     ChangeField
	OldValue  string
	NewValue  string
}

// PostRef is an opaque handle to one post on a platform. CID is empty for
// platforms whose references have a single component.
type PostRef struct {
	URI string
	CID string
}

// IsZero reports whether the ref points at nothing.
func (r PostRef) IsZero() bool {
	return r.URI == ""
}

// MediaRef is an opaque handle to uploaded media, produced and consumed by
// the same platform adapter.
type MediaRef string

// ThreadRef anchors the reply chain for one article on one platform.
// RootPost never changes after first write; LastPost always points at the
// most recent post in the chain. Rows survive removal and reinstatement.
type ThreadRef struct {
	ArticleID string
	Platform  string
	LastPost  PostRef
	RootPost  PostRef
}
