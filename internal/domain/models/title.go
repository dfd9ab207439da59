// internal/domain/models/title.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TitleNameMaxLen bounds the stored display name of a title.
const TitleNameMaxLen = 500

// Title is a role defined by a corporation. Unique per
// (corporation_id, title_id); the set for a corporation is replaced
// wholesale on every successful pull.
type Title struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CorporationID int64              `bson:"corporation_id" json:"corporation_id"`
	TitleID       int64              `bson:"title_id" json:"title_id"`
	TitleName     string             `bson:"title_name" json:"title_name"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
