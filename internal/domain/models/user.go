// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a local account. Its corporation is not stored on the user;
// it is derived from the main character (see Character).
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username        string             `bson:"username" json:"username"`
	UsernameCI      string             `bson:"username_ci" json:"username_ci"` // lowercase, diacritics-stripped
	MainCharacterID *int64             `bson:"main_character_id,omitempty" json:"main_character_id,omitempty"`
	Status          string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
