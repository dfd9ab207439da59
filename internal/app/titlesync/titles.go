package titlesync

import (
	"context"
	"fmt"

	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/htmlsanitize"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SyncTitles replaces the corporation's titles with what ESI reports,
// reading them with userID's token.
//
// It returns ErrCredentialUnavailable, ErrNotModified, a *RemoteError, or a
// store error. Only the first and the third mark the owner invalid. The
// response ETag is remembered only after the titles are saved.
func (e *Engine) SyncTitles(ctx context.Context, corporationID int64, userID primitive.ObjectID) error {
	log := e.log.With(
		zap.Int64("corporation_id", corporationID),
		zap.String("user_id", userID.Hex()))
	log.Info("fetching corporation titles")

	tok, err := e.token(ctx, log, corporationID, userID)
	if err != nil {
		return err
	}

	etag, gen := e.etags.get(resourceTitles, corporationID)
	remote, tag, err := e.Remote.CorporationTitles(ctx, corporationID, tok, etag)
	if err != nil {
		return e.remoteFailure(ctx, log, corporationID, userID, "corporation_titles", err)
	}
	log.Debug("retrieved titles", zap.Int("count", len(remote)))

	titles := cleanTitles(corporationID, remote)
	sctx, cancel := e.bound(ctx, timeouts.Batch, "title replacement")
	res, err := e.Titles.ReplaceForCorporation(sctx, corporationID, titles)
	cancel()
	if err != nil {
		e.etags.forget(resourceTitles, corporationID)
		log.Error("failed to save titles", zap.Error(err))
		return fmt.Errorf("replace titles: %w", err)
	}
	e.etags.commit(resourceTitles, corporationID, gen, tag)
	log.Info("saved titles",
		zap.Int64("deleted", res.Deleted),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", len(remote)-len(titles)))
	if e.audit != nil {
		actx, cancel := e.bound(ctx, timeouts.Short, "audit titles replaced")
		e.audit.TitlesReplaced(actx, corporationID, userID, res.Deleted, res.Inserted)
		cancel()
	}

	e.validate(ctx, log, userID)
	return nil
}

// cleanTitles strips markup from title names, bounds their length and
// drops titles left without a name.
func cleanTitles(corporationID int64, remote []esi.Title) []models.Title {
	out := make([]models.Title, 0, len(remote))
	for _, t := range remote {
		name := htmlsanitize.Truncate(htmlsanitize.StripTags(t.Name), models.TitleNameMaxLen)
		if name == "" {
			continue
		}
		out = append(out, models.Title{
			CorporationID: corporationID,
			TitleID:       t.TitleID,
			TitleName:     name,
		})
	}
	return out
}
