package titlesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/ssotoken"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// token resolves the owner's token. An owner without one is marked invalid.
func (e *Engine) token(ctx context.Context, log *zap.Logger, corporationID int64, userID primitive.ObjectID) (*oauth2.Token, error) {
	rctx, cancel := e.bound(ctx, timeouts.Remote, "token resolve")
	res, err := e.Tokens.Resolve(rctx, userID, requiredScopes)
	cancel()
	if errors.Is(err, ssotoken.ErrNoValidToken) {
		log.Warn("no valid token found for owner")
		e.invalidate(ctx, log, corporationID, userID, "no valid token")
		return nil, ErrCredentialUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return res.Token, nil
}

// remoteFailure classifies an ESI error. Not-modified leaves the owner
// alone; anything else marks it invalid.
func (e *Engine) remoteFailure(ctx context.Context, log *zap.Logger, corporationID int64, userID primitive.ObjectID, op string, err error) error {
	if errors.Is(err, esi.ErrNotModified) {
		log.Info("no changes (HTTP 304 Not Modified)", zap.String("operation", op))
		return ErrNotModified
	}
	log.Error("esi request failed", zap.String("operation", op), zap.Error(err))
	e.invalidate(ctx, log, corporationID, userID, err.Error())
	return &RemoteError{Op: op, Err: err}
}

func (e *Engine) invalidate(ctx context.Context, log *zap.Logger, corporationID int64, userID primitive.ObjectID, reason string) {
	ctx, cancel := e.bound(ctx, timeouts.Short, "mark owner invalid")
	defer cancel()
	if err := e.Owners.MarkInvalid(ctx, userID); err != nil {
		log.Error("failed to mark owner invalid", zap.Error(err))
		return
	}
	e.metrics.credentialInvalidated()
	if e.audit != nil {
		e.audit.CredentialInvalidated(ctx, corporationID, userID, reason)
	}
}

// validate records a successful pull. The sync itself already happened, so
// a failure here is logged rather than returned.
func (e *Engine) validate(ctx context.Context, log *zap.Logger, userID primitive.ObjectID) {
	ctx, cancel := e.bound(ctx, timeouts.Short, "mark owner valid")
	defer cancel()
	if err := e.Owners.MarkValid(ctx, userID, e.now()); err != nil {
		log.Error("failed to mark owner valid", zap.Error(err))
		return
	}
	log.Info("owner validated")
}
