// internal/app/store/titles/titlestore.go
package titlestore

import (
	"context"
	"sync"
	"time"

	"github.com/EVE-University/unistudent/internal/app/system/txn"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		db:    db,
		c:     db.Collection("titles"),
		log:   logger,
		locks: make(map[int64]*sync.Mutex),
	}
}

// ReplaceResult reports what a replacement changed.
type ReplaceResult struct {
	Deleted  int64
	Inserted int
}

// corpLock returns the mutex serializing replacements for one corporation.
func (s *Store) corpLock(corporationID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[corporationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[corporationID] = l
	}
	return l
}

// ReplaceForCorporation swaps the corporation's full title set for titles.
// The delete and the inserts run in one transaction, and replacements for
// the same corporation never overlap within this process. Titles whose
// TitleID repeats keep the last occurrence.
func (s *Store) ReplaceForCorporation(ctx context.Context, corporationID int64, titles []models.Title) (ReplaceResult, error) {
	l := s.corpLock(corporationID)
	l.Lock()
	defer l.Unlock()

	now := time.Now().UTC()
	byID := make(map[int64]int, len(titles))
	docs := make([]interface{}, 0, len(titles))
	for _, t := range titles {
		doc := models.Title{
			ID:            primitive.NewObjectID(),
			CorporationID: corporationID,
			TitleID:       t.TitleID,
			TitleName:     t.TitleName,
			UpdatedAt:     now,
		}
		if i, dup := byID[t.TitleID]; dup {
			docs[i] = doc
			continue
		}
		byID[t.TitleID] = len(docs)
		docs = append(docs, doc)
	}

	var res ReplaceResult
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res = ReplaceResult{}
		del, err := s.c.DeleteMany(ctx, bson.M{"corporation_id": corporationID})
		if err != nil {
			return err
		}
		res.Deleted = del.DeletedCount
		if len(docs) == 0 {
			return nil
		}
		ins, err := s.c.InsertMany(ctx, docs)
		if err != nil {
			return err
		}
		res.Inserted = len(ins.InsertedIDs)
		return nil
	})
	if err != nil {
		return ReplaceResult{}, err
	}
	return res, nil
}

// ListByCorporation returns the corporation's titles ordered by title id.
func (s *Store) ListByCorporation(ctx context.Context, corporationID int64) ([]models.Title, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"corporation_id": corporationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var titles []models.Title
	if err := cur.All(ctx, &titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// Get returns mongo.ErrNoDocuments when the corporation has no such title.
func (s *Store) Get(ctx context.Context, corporationID, titleID int64) (models.Title, error) {
	var t models.Title
	err := s.c.FindOne(ctx, bson.M{"corporation_id": corporationID, "title_id": titleID}).Decode(&t)
	if err != nil {
		return models.Title{}, err
	}
	return t, nil
}
