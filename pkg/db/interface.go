package db

import (
	"context"
	"database/sql"
	"errors"

	"news-ingest/pkg/domain"
)

// ErrDuplicate is returned by Insert when an article with the same link is
// already stored. Callers treat it as a deduplication outcome, not a failure.
var ErrDuplicate = errors.New("article link already stored")

// ArticleStore is the persistence boundary of the ingestion pipeline.
// The pipeline only checks for existence and inserts; it never updates or deletes.
type ArticleStore interface {
	Exists(ctx context.Context, link string) (bool, error)
	Insert(ctx context.Context, article *domain.Article) error
}

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows both PostgresClient and SupabaseClient to be used interchangeably.
type DBProvider interface {
	DB() *sql.DB
}
