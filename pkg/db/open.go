package db

import (
	"context"
	"fmt"
	"log"

	"news-ingest/pkg/config"
)

// OpenStore connects the article store selected by settings.Store. The
// returned close function releases its connection.
func OpenStore(ctx context.Context, s config.Settings) (ArticleStore, func(), error) {
	switch s.Store {
	case "memory":
		log.Printf("Store: using in-memory store, nothing is persisted")
		return NewMemoryStore(), func() {}, nil

	case "postgres":
		client := NewPostgresClient(PostgresConfig{DSN: s.DatabaseURL})
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}
		store, err := client.ArticleStore()
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		log.Printf("Store: connected to postgres")
		return store, func() { _ = client.Close() }, nil

	case "supabase":
		client := NewSupabaseClient(SupabaseConfig{
			ConnectionString: s.DatabaseURL,
			SupabaseURL:      s.SupabaseURL,
			SupabaseKey:      s.SupabaseKey,
			Password:         s.SupabaseDBPassword,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}
		store, err := client.ArticleStore()
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		log.Printf("Store: connected to supabase (direct db: %t)", client.HasDirectDB())
		return store, func() { _ = client.Close() }, nil

	case "mongo":
		client, err := NewMongoClient(s.MongoURI, s.MongoDB, s.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Connect(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		log.Printf("Store: connected to mongo %s.%s", s.MongoDB, s.MongoCollection)
		return client, func() { _ = client.Close(context.Background()) }, nil

	default:
		return nil, nil, &config.ConfigError{Reason: fmt.Sprintf("unknown store %q", s.Store)}
	}
}
