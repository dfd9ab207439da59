// internal/app/store/tokens/tokenstore.go
package tokenstore

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
	return &Store{c: db.Collection("sso_tokens")}
}

// Create inserts a token grant.
func (s *Store) Create(ctx context.Context, t models.Token) (models.Token, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Token{}, err
	}
	return t, nil
}

// ListByUser returns the user's tokens, most recently updated first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Token, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Token
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGrant stores a refreshed access token. The refresh token is only
// replaced when the provider rotated it.
func (s *Store) UpdateGrant(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiry time.Time) error {
	set := bson.M{
		"access_token": accessToken,
		"expiry":       expiry.UTC(),
		"updated_at":   time.Now().UTC(),
	}
	if refreshToken != "" {
		set["refresh_token"] = refreshToken
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes a token grant.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
