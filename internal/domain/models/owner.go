// internal/domain/models/owner.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner is the per-user record of a delegated credential used to read
// corporation titles. One document per user.
//
// ValidToken is cleared whenever a sync attempt proves the credential
// unusable and set again on the next successful pull. LastPull is only
// advanced by a successful pull.
type Owner struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	ValidToken bool               `bson:"valid_token" json:"valid_token"`
	LastPull   *time.Time         `bson:"last_pull,omitempty" json:"last_pull,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
