// internal/domain/models/character.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Character is a remote identity known locally. OwnerUserID is nil until
// ownership of the character has been established for a local user.
type Character struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CharacterID   int64               `bson:"character_id" json:"character_id"`
	CharacterName string              `bson:"character_name" json:"character_name"`
	CorporationID int64               `bson:"corporation_id" json:"corporation_id"`
	OwnerUserID   *primitive.ObjectID `bson:"owner_user_id,omitempty" json:"owner_user_id,omitempty"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}
