// internal/app/store/characters/characterstore.go
package characterstore

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
	return &Store{c: db.Collection("characters")}
}

// Upsert writes the character keyed by its remote CharacterID.
func (s *Store) Upsert(ctx context.Context, ch models.Character) error {
	set := bson.M{
		"character_name": ch.CharacterName,
		"corporation_id": ch.CorporationID,
		"updated_at":     time.Now().UTC(),
	}
	if ch.OwnerUserID != nil {
		set["owner_user_id"] = *ch.OwnerUserID
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"character_id": ch.CharacterID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetByCharacterID returns mongo.ErrNoDocuments for unknown characters.
func (s *Store) GetByCharacterID(ctx context.Context, characterID int64) (models.Character, error) {
	var ch models.Character
	if err := s.c.FindOne(ctx, bson.M{"character_id": characterID}).Decode(&ch); err != nil {
		return models.Character{}, err
	}
	return ch, nil
}

// GetByCharacterIDs loads every known character among ids.
func (s *Store) GetByCharacterIDs(ctx context.Context, ids []int64) ([]models.Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"character_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Character
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OwnersOf maps each owned character in ids to its owning user. Characters
// that are unknown or have no owner are absent from the result.
func (s *Store) OwnersOf(ctx context.Context, ids []int64) (map[int64]primitive.ObjectID, error) {
	out := make(map[int64]primitive.ObjectID)
	if len(ids) == 0 {
		return out, nil
	}
	filter := bson.M{
		"character_id":  bson.M{"$in": ids},
		"owner_user_id": bson.M{"$exists": true, "$ne": nil},
	}
	opts := options.Find().SetProjection(bson.M{"character_id": 1, "owner_user_id": 1})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			CharacterID int64              `bson:"character_id"`
			OwnerUserID primitive.ObjectID `bson:"owner_user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.CharacterID] = row.OwnerUserID
	}
	return out, cur.Err()
}
