package tokenstore_test

import (
	"testing"
	"time"

	tokenstore "github.com/EVE-University/unistudent/internal/app/store/tokens"
	"github.com/EVE-University/unistudent/internal/testutil"
)

func TestStore_ListByUser_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "director", nil)
	older := fixtures.CreateToken(ctx, u.ID, 1, time.Now().Add(time.Hour), "esi-corporations.read_titles.v1")
	time.Sleep(5 * time.Millisecond)
	newer := fixtures.CreateToken(ctx, u.ID, 2, time.Now().Add(time.Hour), "esi-corporations.read_titles.v1")

	toks, err := store.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(toks))
	}
	if toks[0].ID != newer.ID || toks[1].ID != older.ID {
		t.Error("tokens not ordered newest first")
	}
}

func TestStore_UpdateGrant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "director", nil)
	tok := fixtures.CreateToken(ctx, u.ID, 1, time.Now().Add(-time.Minute))

	expiry := time.Now().UTC().Add(20 * time.Minute).Truncate(time.Millisecond)
	if err := store.UpdateGrant(ctx, tok.ID, "new-access", "", expiry); err != nil {
		t.Fatalf("UpdateGrant failed: %v", err)
	}

	toks, err := store.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	got := toks[0]
	if got.AccessToken != "new-access" {
		t.Errorf("AccessToken: got %q", got.AccessToken)
	}
	if got.RefreshToken != tok.RefreshToken {
		t.Errorf("RefreshToken should be kept when not rotated: got %q, want %q", got.RefreshToken, tok.RefreshToken)
	}
	if !got.Expiry.Equal(expiry) {
		t.Errorf("Expiry: got %v, want %v", got.Expiry, expiry)
	}
}
