// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SourceTitleSync marks memberships written by the title sweep.
const SourceTitleSync = "title_sync"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

// MemberIDs returns the users currently in the group.
func (s *Store) MemberIDs(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"user_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.UserID)
	}
	return ids, cur.Err()
}

// AddUsers inserts a membership for every user in a single batch.
// Users already in the group are skipped, not treated as errors.
// Returns the number of memberships actually created.
func (s *Store) AddUsers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(userIDs))
	for _, uid := range userIDs {
		docs = append(docs, models.GroupMembership{
			ID:        primitive.NewObjectID(),
			GroupID:   groupID,
			UserID:    uid,
			Source:    SourceTitleSync,
			CreatedAt: now,
		})
	}

	// Use ordered:false so all inserts are attempted even if some fail (duplicates)
	opts := options.InsertMany().SetOrdered(false)
	_, err := s.c.InsertMany(ctx, docs, opts)
	if err == nil {
		return len(docs), nil
	}

	// InsertMany with ordered:false returns a BulkWriteException for duplicate key errors.
	// Duplicates are expected; anything else is propagated.
	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return 0, err
	}
	for _, we := range bulkErr.WriteErrors {
		if we.Code != 11000 {
			return 0, err
		}
	}
	return len(docs) - len(bulkErr.WriteErrors), nil
}

// RemoveUsers deletes the memberships of userIDs in the group. Users that
// are not members are ignored. Returns the number of memberships removed.
func (s *Store) RemoveUsers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{
		"group_id": groupID,
		"user_id":  bson.M{"$in": userIDs},
	})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
