package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The token itself is the document _id.
type mongoRevokedCredentialRepository struct {
	collection *mongo.Collection
}

func NewMongoRevokedCredentialRepository(db *mongo.Database) repository.RevokedCredentialRepository {
	return &mongoRevokedCredentialRepository{collection: db.Collection(revokedCollectionName)}
}

func (r *mongoRevokedCredentialRepository) Revoke(ctx context.Context, cred *domain.RevokedCredential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	onInsert := bson.M{"expiresAt": cred.ExpiresAt.UTC(), "createdAt": cred.CreatedAt}
	if cred.UserID != nil {
		onInsert["userId"] = *cred.UserID
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": cred.Token},
		bson.M{"$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *mongoRevokedCredentialRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"_id": token},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, err
	}
}

func (r *mongoRevokedCredentialRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// The TTL index lets the server expire entries on its own; the sweeper still
// runs so behaviour matches the relational backend.
func revokedIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
}
