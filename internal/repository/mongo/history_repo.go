package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoHistoryRepository struct {
	softDeleteCollection[domain.History]
}

func NewMongoHistoryRepository(db *mongo.Database) repository.HistoryRepository {
	return &mongoHistoryRepository{
		softDeleteCollection: softDeleteCollection[domain.History]{collection: db.Collection(historyCollectionName)},
	}
}

func (r *mongoHistoryRepository) Create(ctx context.Context, entry *domain.History) error {
	if entry.UserID == uuid.Nil || entry.Action == "" {
		return errors.New("history entry requires a user id and an action")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	return r.insert(ctx, entry)
}

func (r *mongoHistoryRepository) UpdateAction(ctx context.Context, id uuid.UUID, action string) (*domain.History, error) {
	return r.update(ctx, id, bson.M{"action": action, "updatedAt": time.Now().UTC()})
}
