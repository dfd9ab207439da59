package membershipstore_test

import (
	"sort"
	"testing"

	membershipstore "github.com/EVE-University/unistudent/internal/app/store/memberships"
	"github.com/EVE-University/unistudent/internal/app/system/indexes"
	"github.com/EVE-University/unistudent/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func hexes(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	sort.Strings(out)
	return out
}

func TestStore_MemberIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Students")
	other := fixtures.CreateGroup(ctx, "Staff")
	u1 := fixtures.CreateUser(ctx, "alpha", nil)
	u2 := fixtures.CreateUser(ctx, "bravo", nil)
	fixtures.CreateGroupMembership(ctx, u1.ID, group.ID)
	fixtures.CreateGroupMembership(ctx, u2.ID, group.ID)
	fixtures.CreateGroupMembership(ctx, u2.ID, other.ID)

	ids, err := store.MemberIDs(ctx, group.ID)
	if err != nil {
		t.Fatalf("MemberIDs failed: %v", err)
	}
	got := hexes(ids)
	want := hexes([]primitive.ObjectID{u1.ID, u2.ID})
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("MemberIDs: got %v, want %v", got, want)
	}
}

func TestStore_AddUsers_SkipsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)

	group := fixtures.CreateGroup(ctx, "Students")
	existing := fixtures.CreateUser(ctx, "alpha", nil)
	fresh := fixtures.CreateUser(ctx, "bravo", nil)
	fixtures.CreateGroupMembership(ctx, existing.ID, group.ID)

	added, err := store.AddUsers(ctx, group.ID, []primitive.ObjectID{existing.ID, fresh.ID})
	if err != nil {
		t.Fatalf("AddUsers failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 added, got %d", added)
	}

	ids, err := store.MemberIDs(ctx, group.ID)
	if err != nil {
		t.Fatalf("MemberIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 members, got %d", len(ids))
	}

	var m struct {
		Source string `bson:"source"`
	}
	err = db.Collection("group_memberships").FindOne(ctx, bson.M{"group_id": group.ID, "user_id": fresh.ID}).Decode(&m)
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if m.Source != membershipstore.SourceTitleSync {
		t.Errorf("Source: got %q, want %q", m.Source, membershipstore.SourceTitleSync)
	}
}

func TestStore_AddUsers_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	added, err := store.AddUsers(ctx, primitive.NewObjectID(), nil)
	if err != nil {
		t.Fatalf("AddUsers failed: %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 added, got %d", added)
	}
}

func TestStore_RemoveUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Students")
	u1 := fixtures.CreateUser(ctx, "alpha", nil)
	u2 := fixtures.CreateUser(ctx, "bravo", nil)
	stranger := fixtures.CreateUser(ctx, "charlie", nil)
	fixtures.CreateGroupMembership(ctx, u1.ID, group.ID)
	fixtures.CreateGroupMembership(ctx, u2.ID, group.ID)

	removed, err := store.RemoveUsers(ctx, group.ID, []primitive.ObjectID{u1.ID, stranger.ID})
	if err != nil {
		t.Fatalf("RemoveUsers failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	ids, err := store.MemberIDs(ctx, group.ID)
	if err != nil {
		t.Fatalf("MemberIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != u2.ID {
		t.Errorf("expected only %s to remain, got %v", u2.ID.Hex(), hexes(ids))
	}
}
