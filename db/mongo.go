package db

import (
	"context"
	"fmt"
	"go-user-api/config"
	"go-user-api/logger"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect establishes and pings the MongoDB connection configured in
// AppConfig.
func Connect() (*mongo.Client, error) {
	cfg := config.AppConfig.Mongo

	logger.Log.WithField("database", cfg.Database).Info("Attempting to connect to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to open MongoDB connection")
		return nil, fmt.Errorf("failed to open mongodb connection: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		logger.Log.WithError(err).Error("Failed to ping MongoDB")
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Log.Info("MongoDB connection established successfully")
	return client, nil
}

// EnsureIndexes creates the unique indexes the registration flow relies on.
// Duplicate usernames or emails then fail at the document write even when two
// registrations race past the existence pre-check.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	users := database.Collection("users")

	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create user indexes")
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	logger.Log.Info("User indexes ensured")
	return nil
}
