package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"time"

	"news-ingest/pkg/config"
	"news-ingest/pkg/db"
	"news-ingest/pkg/dedup"
	"news-ingest/pkg/replication"

	"github.com/joho/godotenv"
)

// Copies every article stored in MongoDB into the store selected by
// INGEST_STORE (or --to), skipping links the target already has.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	var (
		mongoURI   = flag.String("mongo-uri", settings.MongoURI, "MongoDB connection string of the source")
		dbName     = flag.String("db", settings.MongoDB, "MongoDB database name")
		collection = flag.String("collection", settings.MongoCollection, "MongoDB collection holding the articles")
		to         = flag.String("to", settings.Store, "Target store: postgres, supabase or memory")
		workers    = flag.Int("workers", 5, "Number of parallel batch workers")
		batchSize  = flag.Int("batch", replication.DefaultBatchSize, "Articles per batch")
	)
	flag.Parse()

	settings.Store = *to
	if settings.Store == "mongo" {
		log.Fatalf("Target store must differ from the mongo source")
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	ctx := context.Background()

	source, err := db.NewMongoClient(*mongoURI, *dbName, *collection)
	if err != nil {
		log.Fatalf("Failed to create mongo client: %v", err)
	}
	if err := source.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer source.Close(ctx)

	target, closeTarget, err := db.OpenStore(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", settings.Store, err)
	}
	defer closeTarget()

	replicator, err := replication.NewReplicator(replication.Config{
		Source:    source,
		Target:    dedup.New(target, nil),
		Workers:   *workers,
		BatchSize: *batchSize,
	})
	if err != nil {
		log.Fatalf("Failed to create replicator: %v", err)
	}

	start := time.Now()
	log.Printf("Replicating %s.%s into %s", *dbName, *collection, settings.Store)
	res, err := replicator.Replicate(ctx)
	if err != nil {
		log.Fatalf("Replication failed after %d articles: %v", res.Processed, err)
	}
	log.Printf("Done. Inserted %d of %d articles. Duration: %s", res.Inserted, res.Processed, time.Since(start))
}
