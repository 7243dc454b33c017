package db

import (
	"context"
	"fmt"

	"news-ingest/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient wraps the MongoDB client and the articles collection.
// Duplicate detection on insert relies on a unique index on "link".
type MongoClient struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewMongoClient creates a new database client
func NewMongoClient(connectionString, databaseName, collectionName string) (*MongoClient, error) {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}

	if collectionName == "" {
		collectionName = DefaultArticleTable
	}

	return &MongoClient{
		mongoClient: mongoClient,
		collection:  mongoClient.Database(databaseName).Collection(collectionName),
	}, nil
}

// Connect verifies the connection to MongoDB
func (c *MongoClient) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *MongoClient) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// Exists reports whether a document with link exists
func (c *MongoClient) Exists(ctx context.Context, link string) (bool, error) {
	if c.collection == nil {
		return false, fmt.Errorf("collection not initialized")
	}

	n, err := c.collection.CountDocuments(ctx, bson.M{"link": link}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return n > 0, nil
}

// Insert adds the article as a new document. A duplicate key on link yields ErrDuplicate.
func (c *MongoClient) Insert(ctx context.Context, article *domain.Article) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	if _, err := c.collection.InsertOne(ctx, article); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// ReadAll returns every stored article, oldest first
func (c *MongoClient) ReadAll(ctx context.Context) ([]domain.Article, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "published_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find articles: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []domain.Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return articles, nil
}
