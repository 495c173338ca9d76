package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// softDeleteCollection implements repository.SoftDeleteRepository for
// documents carrying _id, userId, createdAt and isDeleted fields.
type softDeleteCollection[T any] struct {
	collection *mongo.Collection
	// applied to ListByOwner, e.g. to drop large fields
	listProjection bson.M
}

func liveFilter(extra bson.M) bson.M {
	extra["isDeleted"] = false
	return extra
}

func (c softDeleteCollection[T]) insert(ctx context.Context, doc *T) error {
	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (c softDeleteCollection[T]) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*T, error) {
	var out T
	err := c.collection.FindOne(ctx, liveFilter(bson.M{"_id": id, "userId": ownerID})).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (c softDeleteCollection[T]) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if c.listProjection != nil {
		opts.SetProjection(c.listProjection)
	}

	cursor, err := c.collection.Find(ctx, liveFilter(bson.M{"userId": ownerID}), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c softDeleteCollection[T]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return softDeleteOne(ctx, c.collection, id)
}

// update sets fields on a live document and returns it after the change.
func (c softDeleteCollection[T]) update(ctx context.Context, id uuid.UUID, set bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out T
	err := c.collection.FindOneAndUpdate(ctx, liveFilter(bson.M{"_id": id}), bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &out, nil
}

func softDeleteOne(ctx context.Context, coll *mongo.Collection, id uuid.UUID) error {
	now := time.Now().UTC()
	res, err := coll.UpdateOne(ctx,
		liveFilter(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func ownerIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
}
