// internal/domain/models/token.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token is a stored SSO grant for one character of one user.
type Token struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	CharacterID  int64              `bson:"character_id" json:"character_id"`
	AccessToken  string             `bson:"access_token" json:"-"`
	RefreshToken string             `bson:"refresh_token" json:"-"`
	TokenType    string             `bson:"token_type,omitempty" json:"token_type,omitempty"`
	Expiry       time.Time          `bson:"expiry" json:"expiry"`
	Scopes       []string           `bson:"scopes" json:"scopes"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasScopes reports whether the token was granted every scope in want.
func (t Token) HasScopes(want []string) bool {
	have := make(map[string]struct{}, len(t.Scopes))
	for _, s := range t.Scopes {
		have[s] = struct{}{}
	}
	for _, s := range want {
		if _, ok := have[s]; !ok {
			return false
		}
	}
	return true
}
