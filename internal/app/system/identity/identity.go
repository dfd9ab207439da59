// Package identity maps local users to their EVE corporation and remote
// characters back to the local users that own them.
package identity

import (
	"context"
	"errors"

	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore loads users.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// CharacterStore loads characters and their owners.
type CharacterStore interface {
	GetByCharacterID(ctx context.Context, characterID int64) (models.Character, error)
	OwnersOf(ctx context.Context, ids []int64) (map[int64]primitive.ObjectID, error)
}

// Resolver answers identity questions from the local stores.
type Resolver struct {
	users      UserStore
	characters CharacterStore
}

func New(users UserStore, characters CharacterStore) *Resolver {
	return &Resolver{users: users, characters: characters}
}

// PrimaryCorporation returns the corporation of the user's main character.
// ok is false when the user, the main character or its corporation is
// unknown; err is reserved for store failures.
func (r *Resolver) PrimaryCorporation(ctx context.Context, userID primitive.ObjectID) (corporationID int64, ok bool, err error) {
	u, err := r.users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if u.MainCharacterID == nil {
		return 0, false, nil
	}

	ch, err := r.characters.GetByCharacterID(ctx, *u.MainCharacterID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if ch.CorporationID == 0 {
		return 0, false, nil
	}
	return ch.CorporationID, true, nil
}

// OwningUsers maps each character in characterIDs to its local owner.
// Characters nobody owns are absent from the map.
func (r *Resolver) OwningUsers(ctx context.Context, characterIDs []int64) (map[int64]primitive.ObjectID, error) {
	return r.characters.OwnersOf(ctx, characterIDs)
}
