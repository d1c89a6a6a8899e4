package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsdiff/internal/domain"
	"newsdiff/internal/ports"
)

// Store persists articles, version history, and platform thread refs in
// Postgres. Version rows are append-only; errors propagate to the caller
// with no implicit retry.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.VersionStore = (*Store)(nil)

// NewStore wires a sql.DB connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// IsNew reports whether no article row exists yet for the id.
func (s *Store) IsNew(ctx context.Context, articleID string) (bool, error) {
	query, args, err := s.builder.
		Select("1").
		From("articles").
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query article: %w", err)
	}
	return false, nil
}

// CreateArticle inserts the article row on first sighting. Idempotent.
func (s *Store) CreateArticle(ctx context.Context, articleID string, observedAt time.Time) error {
	query, args, err := s.builder.
		Insert("articles").
		Columns("article_id", "status", "created_at").
		Values(articleID, string(domain.StatusHome), observedAt).
		Suffix("ON CONFLICT (article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetStatus returns the article's current status.
func (s *Store) GetStatus(ctx context.Context, articleID string) (domain.Status, error) {
	query, args, err := s.builder.
		Select("status").
		From("articles").
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var status string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&status); err != nil {
		return "", fmt.Errorf("query status: %w", err)
	}
	return domain.Status(status), nil
}

// MarkStatus sets the article's status. Idempotent.
func (s *Store) MarkStatus(ctx context.Context, articleID string, status domain.Status) error {
	query, args, err := s.builder.
		Update("articles").
		Set("status", string(status)).
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

const versionColumns = "article_id, version, url, title, abstract, byline, kicker, thumbnail_url, content_hash, observed_at"

// GetLatestVersion returns the highest-numbered version for the article, or
// nil when none exists.
func (s *Store) GetLatestVersion(ctx context.Context, articleID string) (*domain.ArticleVersion, error) {
	query, args, err := s.builder.
		Select(versionColumns).
		From("article_versions").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("version DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v domain.ArticleVersion
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&v.ArticleID,
		&v.Version,
		&v.Fields.URL,
		&v.Fields.Title,
		&v.Fields.Abstract,
		&v.Fields.Byline,
		&v.Fields.Kicker,
		&v.Fields.ThumbnailURL,
		&v.ContentHash,
		&v.ObservedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest version: %w", err)
	}
	return &v, nil
}

// AppendVersion persists a new version row numbered latest+1 (1 when no
// prior version exists). Runs in a transaction so the number assignment and
// the insert are atomic.
func (s *Store) AppendVersion(ctx context.Context, article domain.NormalizedArticle) (domain.ArticleVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ArticleVersion{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.builder.
		Select("COALESCE(MAX(version), 0)").
		From("article_versions").
		Where(sq.Eq{"article_id": article.ID}).
		ToSql()
	if err != nil {
		return domain.ArticleVersion{}, fmt.Errorf("build query: %w", err)
	}

	var latest int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return domain.ArticleVersion{}, fmt.Errorf("query max version: %w", err)
	}

	version := domain.ArticleVersion{
		ArticleID:   article.ID,
		Version:     latest + 1,
		Fields:      article.Fields,
		ContentHash: article.ContentHash,
		ObservedAt:  article.ObservedAt,
	}

	query, args, err = s.builder.
		Insert("article_versions").
		Columns("article_id", "version", "url", "title", "abstract", "byline", "kicker", "thumbnail_url", "content_hash", "observed_at").
		Values(
			version.ArticleID,
			version.Version,
			version.Fields.URL,
			version.Fields.Title,
			version.Fields.Abstract,
			version.Fields.Byline,
			version.Fields.Kicker,
			version.Fields.ThumbnailURL,
			version.ContentHash,
			version.ObservedAt,
		).
		ToSql()
	if err != nil {
		return domain.ArticleVersion{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.ArticleVersion{}, fmt.Errorf("insert version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.ArticleVersion{}, fmt.Errorf("commit version: %w", err)
	}
	return version, nil
}

// ActiveArticleIDs lists ids whose status is home.
func (s *Store) ActiveArticleIDs(ctx context.Context) ([]string, error) {
	query, args, err := s.builder.
		Select("article_id").
		From("articles").
		Where(sq.Eq{"status": string(domain.StatusHome)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}

// GetThreadRef returns the thread anchor for the article on the platform, or
// nil when no post was ever made there.
func (s *Store) GetThreadRef(ctx context.Context, articleID, platform string) (*domain.ThreadRef, error) {
	query, args, err := s.builder.
		Select("article_id", "platform", "last_post_uri", "last_post_cid", "root_post_uri", "root_post_cid").
		From("platform_thread_refs").
		Where(sq.Eq{"article_id": articleID, "platform": platform}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ref domain.ThreadRef
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&ref.ArticleID,
		&ref.Platform,
		&ref.LastPost.URI,
		&ref.LastPost.CID,
		&ref.RootPost.URI,
		&ref.RootPost.CID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query thread ref: %w", err)
	}
	return &ref, nil
}

// UpsertThreadRef records the newest post ref. The root columns are written
// on first insert only; conflicts update the last ref and leave the root
// untouched.
func (s *Store) UpsertThreadRef(ctx context.Context, ref domain.ThreadRef) error {
	query, args, err := s.builder.
		Insert("platform_thread_refs").
		Columns("article_id", "platform", "last_post_uri", "last_post_cid", "root_post_uri", "root_post_cid").
		Values(ref.ArticleID, ref.Platform, ref.LastPost.URI, ref.LastPost.CID, ref.RootPost.URI, ref.RootPost.CID).
		Suffix(`ON CONFLICT (article_id, platform) DO UPDATE
			SET last_post_uri = EXCLUDED.last_post_uri,
			    last_post_cid = EXCLUDED.last_post_cid,
			    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert thread ref: %w", err)
	}
	return nil
}
