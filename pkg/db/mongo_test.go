package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestIntegration_MongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := fmt.Sprintf("articles_test_%d", time.Now().UnixNano())
	client, err := NewMongoClient(uri, "news_test", collection)
	if err != nil {
		t.Fatalf("NewMongoClient failed: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(ctx)
	defer client.collection.Drop(ctx)

	if _, err := client.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "link", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		t.Fatalf("Failed to create unique index: %v", err)
	}

	link := "https://example.test/mongo/a"
	if err := client.Insert(ctx, testArticle(link)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	exists, err := client.Exists(ctx, link)
	if err != nil || !exists {
		t.Fatalf("Expected link to exist, got exists=%v err=%v", exists, err)
	}
	if err := client.Insert(ctx, testArticle(link)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	all, err := client.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(all) != 1 || all[0].Link != link {
		t.Errorf("Expected the single stored article, got %+v", all)
	}
}
