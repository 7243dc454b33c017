package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"news-ingest/pkg/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// DefaultArticleTable is the table (or collection) articles are stored in.
const DefaultArticleTable = "articles"

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// SQLArticleStore implements ArticleStore over any Postgres handle.
//
// The table needs a unique constraint on link:
//
//	CREATE TABLE articles (
//	    id           BIGSERIAL PRIMARY KEY,
//	    title        TEXT NOT NULL,
//	    link         TEXT NOT NULL UNIQUE,
//	    summary      TEXT NOT NULL DEFAULT '',
//	    published_at TIMESTAMPTZ NOT NULL,
//	    source       TEXT NOT NULL,
//	    category     TEXT NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type SQLArticleStore struct {
	provider DBProvider
	table    string
}

// NewSQLArticleStore creates a store over provider's handle. An empty table
// name selects DefaultArticleTable.
func NewSQLArticleStore(provider DBProvider, table string) (*SQLArticleStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("database provider is required")
	}
	if table == "" {
		table = DefaultArticleTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLArticleStore{provider: provider, table: table}, nil
}

// Exists reports whether a row with link exists
func (s *SQLArticleStore) Exists(ctx context.Context, link string) (bool, error) {
	db := s.provider.DB()
	if db == nil {
		return false, fmt.Errorf("database not connected")
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE link = $1)`, s.table)
	if err := db.QueryRowContext(ctx, query, link).Scan(&exists); err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

// Insert adds the article. A conflicting link yields ErrDuplicate.
func (s *SQLArticleStore) Insert(ctx context.Context, article *domain.Article) error {
	db := s.provider.DB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}

	query := fmt.Sprintf(`INSERT INTO %s (title, link, summary, published_at, source, category)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (link) DO NOTHING`, s.table)

	res, err := db.ExecContext(ctx, query,
		article.Title,
		article.Link,
		article.Summary,
		article.PublishedAt,
		string(article.Source),
		article.Category,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert article: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	if rows == 0 {
		return ErrDuplicate
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
