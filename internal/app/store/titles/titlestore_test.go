package titlestore_test

import (
	"fmt"
	"sync"
	"testing"

	titlestore "github.com/EVE-University/unistudent/internal/app/store/titles"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"github.com/EVE-University/unistudent/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const corpID int64 = 98000001

func titleSet(names ...string) []models.Title {
	out := make([]models.Title, 0, len(names))
	for i, n := range names {
		out = append(out, models.Title{TitleID: int64(1 << i), TitleName: n})
	}
	return out
}

func TestStore_ReplaceForCorporation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := titlestore.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateTitle(ctx, corpID, 64, "Stale")
	fixtures.CreateTitle(ctx, 98000002, 1, "Other corp")

	res, err := store.ReplaceForCorporation(ctx, corpID, titleSet("Student", "Teacher"))
	if err != nil {
		t.Fatalf("ReplaceForCorporation failed: %v", err)
	}
	if res.Deleted != 1 || res.Inserted != 2 {
		t.Errorf("result: got %+v, want Deleted=1 Inserted=2", res)
	}

	titles, err := store.ListByCorporation(ctx, corpID)
	if err != nil {
		t.Fatalf("ListByCorporation failed: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles, got %d", len(titles))
	}
	if titles[0].TitleID != 1 || titles[0].TitleName != "Student" {
		t.Errorf("first title: got %d %q", titles[0].TitleID, titles[0].TitleName)
	}
	if titles[1].TitleID != 2 || titles[1].TitleName != "Teacher" {
		t.Errorf("second title: got %d %q", titles[1].TitleID, titles[1].TitleName)
	}

	other, err := store.ListByCorporation(ctx, 98000002)
	if err != nil {
		t.Fatalf("ListByCorporation failed: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("other corporation's titles touched: got %d", len(other))
	}
}

func TestStore_ReplaceForCorporation_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := titlestore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	set := titleSet("Student", "Teacher", "Director")
	for i := 0; i < 2; i++ {
		if _, err := store.ReplaceForCorporation(ctx, corpID, set); err != nil {
			t.Fatalf("replace %d failed: %v", i, err)
		}
	}
	titles, err := store.ListByCorporation(ctx, corpID)
	if err != nil {
		t.Fatalf("ListByCorporation failed: %v", err)
	}
	if len(titles) != 3 {
		t.Errorf("expected 3 titles after repeated replace, got %d", len(titles))
	}
}

func TestStore_ReplaceForCorporation_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := titlestore.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateTitle(ctx, corpID, 1, "Student")

	res, err := store.ReplaceForCorporation(ctx, corpID, nil)
	if err != nil {
		t.Fatalf("ReplaceForCorporation failed: %v", err)
	}
	if res.Deleted != 1 || res.Inserted != 0 {
		t.Errorf("result: got %+v", res)
	}
	titles, _ := store.ListByCorporation(ctx, corpID)
	if len(titles) != 0 {
		t.Errorf("expected no titles, got %d", len(titles))
	}
}

func TestStore_ReplaceForCorporation_DuplicateIDsKeepLast(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := titlestore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in := []models.Title{
		{TitleID: 1, TitleName: "Old"},
		{TitleID: 2, TitleName: "Teacher"},
		{TitleID: 1, TitleName: "New"},
	}
	res, err := store.ReplaceForCorporation(ctx, corpID, in)
	if err != nil {
		t.Fatalf("ReplaceForCorporation failed: %v", err)
	}
	if res.Inserted != 2 {
		t.Errorf("Inserted: got %d, want 2", res.Inserted)
	}
	got, err := store.Get(ctx, corpID, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TitleName != "New" {
		t.Errorf("TitleName: got %q, want %q", got.TitleName, "New")
	}
}

func TestStore_ReplaceForCorporation_ConcurrentNeverInterleaves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := titlestore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sets := [][]models.Title{
		titleSet("A1", "A2", "A3"),
		titleSet("B1", "B2", "B3", "B4", "B5"),
	}

	var wg sync.WaitGroup
	for round := 0; round < 10; round++ {
		for _, set := range sets {
			wg.Add(1)
			go func(set []models.Title) {
				defer wg.Done()
				if _, err := store.ReplaceForCorporation(ctx, corpID, set); err != nil {
					t.Errorf("ReplaceForCorporation failed: %v", err)
				}
			}(set)
		}
	}
	wg.Wait()

	titles, err := store.ListByCorporation(ctx, corpID)
	if err != nil {
		t.Fatalf("ListByCorporation failed: %v", err)
	}
	switch len(titles) {
	case 3, 5:
	default:
		t.Fatalf("expected one complete set, got %d titles", len(titles))
	}
	prefix := titles[0].TitleName[:1]
	for i, tt := range titles {
		want := fmt.Sprintf("%s%d", prefix, i+1)
		if tt.TitleName != want {
			t.Errorf("title %d: got %q, want %q (mixed sets)", i, tt.TitleName, want)
		}
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := titlestore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, corpID, 42); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
