package groupstore_test

import (
	"testing"

	groupstore "github.com/EVE-University/unistudent/internal/app/store/groups"
	"github.com/EVE-University/unistudent/internal/app/system/indexes"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"github.com/EVE-University/unistudent/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, err := store.Create(ctx, models.Group{Name: "  Students  ", Description: "Current students"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if g.Name != "Students" {
		t.Errorf("Name: got %q, want %q", g.Name, "Students")
	}
	if g.NameCI != "students" {
		t.Errorf("NameCI: got %q, want %q", g.NameCI, "students")
	}
	if g.Status != "active" {
		t.Errorf("Status: got %q, want %q", g.Status, "active")
	}

	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Description != "Current students" {
		t.Errorf("Description: got %q", got.Description)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := groupstore.New(db)

	if _, err := store.Create(ctx, models.Group{Name: "Students"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Group{Name: "STUDENTS"})
	if err != groupstore.ErrDuplicateGroupName {
		t.Errorf("expected ErrDuplicateGroupName, got %v", err)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b := fixtures.CreateGroup(ctx, "Bravo")
	fixtures.CreateGroup(ctx, "Alpha")

	groups, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "Alpha" {
		t.Errorf("expected Alpha first, got %q", groups[0].Name)
	}

	n, err := store.Delete(ctx, b.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
}
