package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongo подключается к MongoDB и возвращает базу для заявок.
func NewMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: не удалось подключиться: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping не прошёл: %w", err)
	}

	return client.Database(dbName), nil
}

// CloseMongo отключает клиента MongoDB.
func CloseMongo(ctx context.Context, database *mongo.Database) error {
	if database == nil {
		return nil
	}
	return database.Client().Disconnect(ctx)
}
