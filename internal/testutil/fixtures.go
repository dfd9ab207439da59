package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/EVE-University/unistudent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user. mainCharacterID may be nil.
func (f *Fixtures) CreateUser(ctx context.Context, username string, mainCharacterID *int64) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:              primitive.NewObjectID(),
		Username:        username,
		UsernameCI:      text.Fold(username),
		MainCharacterID: mainCharacterID,
		Status:          "active",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateCharacter creates a character in a corporation. owner may be nil
// for characters nobody has claimed.
func (f *Fixtures) CreateCharacter(ctx context.Context, characterID int64, name string, corporationID int64, owner *primitive.ObjectID) models.Character {
	f.t.Helper()

	ch := models.Character{
		ID:            primitive.NewObjectID(),
		CharacterID:   characterID,
		CharacterName: name,
		CorporationID: corporationID,
		OwnerUserID:   owner,
		UpdatedAt:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("characters").InsertOne(ctx, ch); err != nil {
		f.t.Fatalf("failed to create test character: %v", err)
	}
	return ch
}

// CreateMainCharacterUser creates a user whose main character belongs to
// the given corporation.
func (f *Fixtures) CreateMainCharacterUser(ctx context.Context, username string, characterID, corporationID int64) models.User {
	f.t.Helper()

	user := f.CreateUser(ctx, username, &characterID)
	f.CreateCharacter(ctx, characterID, username, corporationID, &user.ID)
	return user
}

// CreateGroup creates a test group.
func (f *Fixtures) CreateGroup(ctx context.Context, name string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateGroupMembership puts a user in a group.
func (f *Fixtures) CreateGroupMembership(ctx context.Context, userID, groupID primitive.ObjectID) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateOwner creates a credential owner record for a user.
func (f *Fixtures) CreateOwner(ctx context.Context, userID primitive.ObjectID, valid bool, lastPull *time.Time) models.Owner {
	f.t.Helper()

	now := time.Now().UTC()
	o := models.Owner{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		ValidToken: valid,
		LastPull:   lastPull,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("owners").InsertOne(ctx, o); err != nil {
		f.t.Fatalf("failed to create test owner: %v", err)
	}
	return o
}

// CreateTitle creates a title for a corporation.
func (f *Fixtures) CreateTitle(ctx context.Context, corporationID, titleID int64, name string) models.Title {
	f.t.Helper()

	title := models.Title{
		ID:            primitive.NewObjectID(),
		CorporationID: corporationID,
		TitleID:       titleID,
		TitleName:     name,
		UpdatedAt:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("titles").InsertOne(ctx, title); err != nil {
		f.t.Fatalf("failed to create test title: %v", err)
	}
	return title
}

// CreateToken stores an SSO grant for a user's character.
func (f *Fixtures) CreateToken(ctx context.Context, userID primitive.ObjectID, characterID int64, expiry time.Time, scopes ...string) models.Token {
	f.t.Helper()

	now := time.Now().UTC()
	tok := models.Token{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		CharacterID:  characterID,
		AccessToken:  "access-" + primitive.NewObjectID().Hex(),
		RefreshToken: "refresh-" + primitive.NewObjectID().Hex(),
		TokenType:    "Bearer",
		Expiry:       expiry.UTC(),
		Scopes:       scopes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("sso_tokens").InsertOne(ctx, tok); err != nil {
		f.t.Fatalf("failed to create test token: %v", err)
	}
	return tok
}
