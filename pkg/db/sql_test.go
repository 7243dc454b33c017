package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("Expected 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23502"}) {
		t.Error("Expected not-null violation not to match")
	}
	if isUniqueViolation(errors.New("23505")) {
		t.Error("Expected plain error not to match")
	}
}

func TestNewSQLArticleStore_TableName(t *testing.T) {
	client := NewPostgresClient(PostgresConfig{})

	if _, err := NewSQLArticleStore(client, "articles; DROP TABLE x"); err == nil {
		t.Error("Expected invalid table name to be rejected")
	}
	store, err := NewSQLArticleStore(client, "")
	if err != nil {
		t.Fatalf("NewSQLArticleStore failed: %v", err)
	}
	if store.table != DefaultArticleTable {
		t.Errorf("Expected default table, got %q", store.table)
	}
	if _, err := NewSQLArticleStore(client, "news.articles"); err != nil {
		t.Errorf("Expected schema-qualified name to be accepted: %v", err)
	}
	if _, err := NewSQLArticleStore(nil, ""); err == nil {
		t.Error("Expected nil provider to be rejected")
	}
}

func TestSQLArticleStore_NotConnected(t *testing.T) {
	store, err := NewPostgresClient(PostgresConfig{}).ArticleStore()
	if err != nil {
		t.Fatalf("ArticleStore failed: %v", err)
	}
	if _, err := store.Exists(context.Background(), "https://example.test/a"); err == nil {
		t.Error("Expected error from unconnected store")
	}
	if err := store.Insert(context.Background(), testArticle("https://example.test/a")); err == nil {
		t.Error("Expected error from unconnected store")
	}
}

// TestIntegration_PostgresStore needs TEST_DATABASE_URL pointing at a
// database whose articles table has a unique constraint on link.
func TestIntegration_PostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	client := NewPostgresClient(PostgresConfig{DSN: dsn})
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer client.Close()

	store, err := client.ArticleStore()
	if err != nil {
		t.Fatalf("ArticleStore failed: %v", err)
	}

	link := fmt.Sprintf("https://example.test/integration/%d", time.Now().UnixNano())
	defer client.DB().ExecContext(ctx, `DELETE FROM articles WHERE link = $1`, link)

	if err := store.Insert(ctx, testArticle(link)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	exists, err := store.Exists(ctx, link)
	if err != nil || !exists {
		t.Fatalf("Expected link to exist, got exists=%v err=%v", exists, err)
	}
	if err := store.Insert(ctx, testArticle(link)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate on second insert, got %v", err)
	}
}
