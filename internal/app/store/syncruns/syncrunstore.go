// internal/app/store/syncruns/syncrunstore.go
package syncrunstore

import (
	"context"

	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sync_runs")}
}

// Insert persists one sweep summary.
func (s *Store) Insert(ctx context.Context, run models.SyncRun) error {
	_, err := s.c.InsertOne(ctx, run)
	return err
}

// Latest returns up to limit runs, newest first.
func (s *Store) Latest(ctx context.Context, limit int64) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var runs []models.SyncRun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
