// Package mongo implements the repositories on MongoDB.
package mongo

import (
	"context"
	"time"

	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

const (
	userCollectionName    = "users"
	uploadCollectionName  = "user_uploads"
	reportCollectionName  = "reports"
	historyCollectionName = "history"
	revokedCollectionName = "token_blacklist"
)

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(Registry()))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// NewRepositories wires every Mongo repository onto db.
func NewRepositories(db *mongo.Database) repository.Repositories {
	return repository.Repositories{
		Users:   NewMongoUserRepository(db),
		Uploads: NewMongoUploadRepository(db),
		Reports: NewMongoReportRepository(db),
		History: NewMongoHistoryRepository(db),
		Revoked: NewMongoRevokedCredentialRepository(db),
	}
}

// EnsureIndexes creates the indexes of every collection. Failures are logged
// and do not stop startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *logger.Logger) {
	for name, models := range map[string][]mongo.IndexModel{
		userCollectionName:    userIndexes(),
		uploadCollectionName:  ownerIndexes(),
		reportCollectionName:  ownerIndexes(),
		historyCollectionName: ownerIndexes(),
		revokedCollectionName: revokedIndexes(),
	} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			log.Warn("failed to create indexes", "collection", name, "error", err)
		}
	}
}
