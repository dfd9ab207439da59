// internal/domain/models/selectedtitle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectedTitle maps one title of a corporation to one local group.
// At most one per corporation, and a group backs at most one mapping.
type SelectedTitle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CorporationID int64              `bson:"corporation_id" json:"corporation_id"`
	TitleID       int64              `bson:"title_id" json:"title_id"`
	GroupID       primitive.ObjectID `bson:"group_id" json:"group_id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
