// internal/app/store/selectedtitles/selectedtitlestore.go
package selectedtitlestore

import (
	"context"
	"errors"
	"time"

	"github.com/EVE-University/unistudent/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c      *mongo.Collection
	titles *mongo.Collection
	groups *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("selected_titles"),
		titles: db.Collection("titles"),
		groups: db.Collection("groups"),
	}
}

var (
	ErrTitleNotFound      = errors.New("title does not exist for this corporation")
	ErrGroupNotFound      = errors.New("group does not exist")
	ErrGroupAlreadyMapped = errors.New("group is already mapped to another corporation's title")
)

// GetByCorporation returns the corporation's mapping, or nil when none is
// configured.
func (s *Store) GetByCorporation(ctx context.Context, corporationID int64) (*models.SelectedTitle, error) {
	var st models.SelectedTitle
	err := s.c.FindOne(ctx, bson.M{"corporation_id": corporationID}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Set creates or replaces the mapping for a corporation. The title must
// belong to the corporation and the group must exist.
func (s *Store) Set(ctx context.Context, corporationID, titleID int64, groupID primitive.ObjectID) (models.SelectedTitle, error) {
	if err := s.titles.FindOne(ctx, bson.M{"corporation_id": corporationID, "title_id": titleID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.SelectedTitle{}, ErrTitleNotFound
		}
		return models.SelectedTitle{}, err
	}
	if err := s.groups.FindOne(ctx, bson.M{"_id": groupID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.SelectedTitle{}, ErrGroupNotFound
		}
		return models.SelectedTitle{}, err
	}

	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var st models.SelectedTitle
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"corporation_id": corporationID},
		bson.M{
			"$set": bson.M{
				"title_id":   titleID,
				"group_id":   groupID,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		opts,
	).Decode(&st)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.SelectedTitle{}, ErrGroupAlreadyMapped
		}
		return models.SelectedTitle{}, err
	}
	return st, nil
}

// Delete removes the corporation's mapping. Returns the number of
// documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, corporationID int64) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"corporation_id": corporationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns all mappings ordered by corporation.
func (s *Store) List(ctx context.Context) ([]models.SelectedTitle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "corporation_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SelectedTitle
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
