// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategorySync  = "sync"
	CategoryAdmin = "admin"
)

// Sync event types
const (
	EventMemberAddedBySync     = "member_added_by_sync"
	EventMemberRemovedBySync   = "member_removed_by_sync"
	EventCredentialInvalidated = "credential_invalidated"
	EventTitlesReplaced        = "titles_replaced"
)

// Admin event types
const (
	EventMappingSet     = "mapping_set"
	EventMappingDeleted = "mapping_deleted"
	EventOwnerEnrolled  = "owner_enrolled"
)

// Event represents an audit event.
type Event struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	CorporationID int64              `bson:"corporation_id,omitempty" json:"corporation_id,omitempty"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected user
	GroupID *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"` // affected group

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	CorporationID int64
	UserID        *primitive.ObjectID
	Category      string
	EventType     string
	StartTime     *time.Time
	Limit         int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// LogMany records several events in one round trip.
func (s *Store) LogMany(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		docs = append(docs, e)
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.CorporationID != 0 {
		query["corporation_id"] = filter.CorporationID
	}
	if filter.UserID != nil {
		query["user_id"] = filter.UserID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil {
		query["timestamp"] = bson.M{"$gte": *filter.StartTime}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
