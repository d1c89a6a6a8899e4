package usecase

import (
	"net/url"
	"strings"

	"newsdiff/internal/domain"
)

// notifiedFields is the fixed comparison order. It determines reply-chain
// order within a run, so it must never be reordered. Byline and thumbnail
// are tracked in versions but not diff-notified.
var notifiedFields = []domain.ChangeField{
	domain.FieldURL,
	domain.FieldTitle,
	domain.FieldAbstract,
	domain.FieldKicker,
}

// DetectChanges compares the latest stored version against a freshly
// normalized record and emits one ChangeEvent per notified field whose value
// differs. A nil latest (brand-new article) and an identical content hash
// both produce no events. Pairs that are empty on either side or identical
// after trimming are skipped.
func DetectChanges(latest *domain.ArticleVersion, fresh domain.NormalizedArticle) []domain.ChangeEvent {
	if latest == nil || latest.ContentHash == fresh.ContentHash {
		return nil
	}

	var events []domain.ChangeEvent
	for _, field := range notifiedFields {
		oldValue := fieldValue(latest.Fields, field)
		newValue := fieldValue(fresh.Fields, field)
		if !fieldChanged(field, oldValue, newValue) {
			continue
		}
		events = append(events, domain.ChangeEvent{
			ArticleID: fresh.ID,
			Field:     field,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	}
	return events
}

func fieldValue(fields domain.Fields, field domain.ChangeField) string {
	switch field {
	case domain.FieldURL:
		return fields.URL
	case domain.FieldTitle:
		return fields.Title
	case domain.FieldAbstract:
		return fields.Abstract
	case domain.FieldKicker:
		return fields.Kicker
	}
	return ""
}

func fieldChanged(field domain.ChangeField, oldValue, newValue string) bool {
	oldValue = strings.TrimSpace(oldValue)
	newValue = strings.TrimSpace(newValue)
	if oldValue == "" || newValue == "" || oldValue == newValue {
		return false
	}
	if field == domain.FieldURL {
		return urlPath(oldValue) != urlPath(newValue)
	}
	return true
}

// urlPath reduces a URL to its path component so scheme/host differences and
// tracking-parameter churn on an unchanged path are not reported as changes.
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
