package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection   = "users"
	BooksCollection   = "books"
	BorrowsCollection = "borrows"
)

// OpenMongo connects to uri, pings the primary and ensures the indexes the
// repositories rely on exist.
func OpenMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	if err := EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

// EnsureMongoIndexes creates the unique and lookup indexes. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{UsersCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{BooksCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "isbn", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{BooksCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "genre", Value: 1}, {Key: "author", Value: 1}},
		}},
		{BorrowsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "borrowDate", Value: 1}},
		}},
		{BorrowsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "book", Value: 1}, {Key: "isReturned", Value: 1}},
		}},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}

// ObjectID parses a hex id. ok is false for malformed ids, which callers
// treat as not found.
func ObjectID(id string) (oid primitive.ObjectID, ok bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}
