// Package ssotoken turns stored EVE SSO grants into usable access tokens,
// refreshing them when they have expired.
package ssotoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultTokenURL is the EVE SSO v2 token endpoint.
const DefaultTokenURL = "https://login.eveonline.com/v2/oauth/token"

// expiryLeeway treats tokens about to expire as already expired.
const expiryLeeway = 30 * time.Second

// ErrNoValidToken means the user holds no grant that covers the requested
// scopes and can still be used or refreshed.
var ErrNoValidToken = errors.New("ssotoken: no valid token")

// TokenStore is the persistence the resolver needs.
type TokenStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Token, error)
	UpdateGrant(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiry time.Time) error
}

// UserStore looks up the user's main character.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Result is a resolved token and the character it acts as.
type Result struct {
	Token       *oauth2.Token
	CharacterID int64
}

// Resolver picks and refreshes SSO tokens.
type Resolver struct {
	tokens TokenStore
	users  UserStore
	oauth  *oauth2.Config
	log    *zap.Logger
	now    func() time.Time
}

// NewResolver builds a Resolver. oauthCfg supplies the client credentials
// and token endpoint used for refreshes.
func NewResolver(tokens TokenStore, users UserStore, oauthCfg *oauth2.Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		tokens: tokens,
		users:  users,
		oauth:  oauthCfg,
		log:    logger,
		now:    time.Now,
	}
}

// OAuthConfig builds the SSO client configuration. An empty tokenURL uses
// DefaultTokenURL.
func OAuthConfig(clientID, clientSecret, tokenURL string) *oauth2.Config {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// Resolve returns an access token of userID covering scopes. Grants of the
// user's main character are preferred; the others are tried newest first.
// ErrNoValidToken is returned when no grant qualifies. Other errors come
// from the stores.
func (r *Resolver) Resolve(ctx context.Context, userID primitive.ObjectID, scopes []string) (Result, error) {
	grants, err := r.tokens.ListByUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("list tokens: %w", err)
	}

	var main int64
	u, err := r.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		if u.MainCharacterID != nil {
			main = *u.MainCharacterID
		}
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return Result{}, fmt.Errorf("load user: %w", err)
	}

	for _, g := range ordered(grants, main) {
		if !g.HasScopes(scopes) {
			continue
		}
		tok, err := r.usable(ctx, g)
		if err != nil {
			if errors.Is(err, errRefresh) {
				r.log.Info("token refresh failed",
					zap.String("user_id", userID.Hex()),
					zap.Int64("character_id", g.CharacterID),
					zap.Error(err))
				continue
			}
			return Result{}, err
		}
		return Result{Token: tok, CharacterID: g.CharacterID}, nil
	}
	return Result{}, ErrNoValidToken
}

var errRefresh = errors.New("refresh")

// usable returns g as an oauth2 token, refreshing and persisting it first
// when it has expired.
func (r *Resolver) usable(ctx context.Context, g models.Token) (*oauth2.Token, error) {
	tok := &oauth2.Token{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		TokenType:    g.TokenType,
		Expiry:       g.Expiry,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if tok.AccessToken != "" && r.now().Add(expiryLeeway).Before(g.Expiry) {
		return tok, nil
	}
	if g.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", errRefresh)
	}

	expired := *tok
	expired.AccessToken = ""
	fresh, err := r.oauth.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRefresh, err)
	}

	rotated := ""
	if fresh.RefreshToken != g.RefreshToken {
		rotated = fresh.RefreshToken
	}
	if err := r.tokens.UpdateGrant(ctx, g.ID, fresh.AccessToken, rotated, fresh.Expiry); err != nil {
		return nil, fmt.Errorf("store refreshed token: %w", err)
	}
	return fresh, nil
}

// ordered puts the main character's grants first and keeps the store order
// otherwise.
func ordered(grants []models.Token, main int64) []models.Token {
	if main == 0 {
		return grants
	}
	out := make([]models.Token, 0, len(grants))
	for _, g := range grants {
		if g.CharacterID == main {
			out = append(out, g)
		}
	}
	for _, g := range grants {
		if g.CharacterID != main {
			out = append(out, g)
		}
	}
	return out
}
