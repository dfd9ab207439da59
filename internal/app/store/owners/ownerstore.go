// internal/app/store/owners/ownerstore.go
package ownerstore

import (
	"context"
	"time"

	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("owners")}
}

// Ensure returns the owner record for userID, creating a valid one if the
// user has none yet.
func (s *Store) Ensure(ctx context.Context, userID primitive.ObjectID) (models.Owner, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var o models.Owner
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":     userID,
			"valid_token": true,
			"created_at":  now,
			"updated_at":  now,
		}},
		opts,
	).Decode(&o)
	if err != nil {
		return models.Owner{}, err
	}
	return o, nil
}

// GetByUser returns mongo.ErrNoDocuments when the user has no owner record.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Owner, error) {
	var o models.Owner
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&o); err != nil {
		return models.Owner{}, err
	}
	return o, nil
}

// List returns every owner in creation order. The order is the failover
// order used by the sweep.
func (s *Store) List(ctx context.Context) ([]models.Owner, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var owners []models.Owner
	if err := cur.All(ctx, &owners); err != nil {
		return nil, err
	}
	return owners, nil
}

// MarkValid records a successful pull at the given time, creating the
// owner record if needed.
func (s *Store) MarkValid(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	at = at.UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{
				"valid_token": true,
				"last_pull":   at,
				"updated_at":  at,
			},
			"$setOnInsert": bson.M{"created_at": at},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// MarkInvalid flags the user's credential as unusable. LastPull is left
// untouched. A user without an owner record is a no-op.
func (s *Store) MarkInvalid(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"valid_token": false,
			"updated_at":  time.Now().UTC(),
		}},
	)
	return err
}
