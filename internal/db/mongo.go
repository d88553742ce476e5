package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Имена коллекций MongoDB.
const (
	CollectionUsers         = "users"
	CollectionProfiles      = "profiles"
	CollectionOpportunities = "opportunities"
	CollectionBookmarks     = "bookmarks"
	CollectionSessions      = "shadow_sessions"
	CollectionDeletions     = "opportunity_deletions"
)

// NewMongo подключается к MongoDB и проверяет соединение командой ping.
func NewMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: не удалось подключиться: %w", err)
	}

	db := client.Database(database)
	if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo: ping не прошёл: %w", err)
	}
	return client, db, nil
}

// EnsureMongoIndexes создаёт индексы коллекций. Повторный вызов безопасен.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionOpportunities: {
			{Keys: bson.D{{Key: "host_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		CollectionBookmarks: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "opportunity_id", Value: 1}}},
		},
		CollectionSessions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "opportunity_id", Value: 1}}},
		},
		CollectionDeletions: {
			{Keys: bson.D{{Key: "done", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: не удалось создать индексы %s: %w", collection, err)
		}
	}
	return nil
}
