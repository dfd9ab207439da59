package audit_test

import (
	"testing"
	"time"

	"github.com/EVE-University/unistudent/internal/app/store/audit"
	"github.com/EVE-University/unistudent/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLogMany_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.LogMany(ctx, nil); err != nil {
		t.Fatalf("LogMany(nil) failed: %v", err)
	}
	events, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestQuery_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	old := time.Now().UTC().Add(-48 * time.Hour)

	err := store.LogMany(ctx, []audit.Event{
		{Category: audit.CategorySync, EventType: audit.EventMemberAddedBySync, CorporationID: 1, UserID: &user, Success: true},
		{Category: audit.CategorySync, EventType: audit.EventMemberRemovedBySync, CorporationID: 1, Success: true},
		{Category: audit.CategorySync, EventType: audit.EventCredentialInvalidated, CorporationID: 2, UserID: &user, Timestamp: old},
	})
	if err != nil {
		t.Fatalf("LogMany failed: %v", err)
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventMappingDeleted, CorporationID: 1, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	since := time.Now().UTC().Add(-time.Hour)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"corporation", audit.QueryFilter{CorporationID: 1}, 3},
		{"user", audit.QueryFilter{UserID: &user}, 2},
		{"category", audit.QueryFilter{Category: audit.CategoryAdmin}, 1},
		{"event type", audit.QueryFilter{EventType: audit.EventMemberRemovedBySync}, 1},
		{"since", audit.QueryFilter{StartTime: &since}, 3},
		{"limit", audit.QueryFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}

	events, err := store.Query(ctx, audit.QueryFilter{CorporationID: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || !events[0].Timestamp.Equal(old.Truncate(time.Millisecond)) {
		t.Errorf("explicit timestamp should be kept, got %+v", events)
	}
}
