package titlesync

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Outcome is the result of one corporation pass.
type Outcome struct {
	CorporationID     int64
	Candidates        int
	TitlesSynced      bool
	MappingConfigured bool
	MembersSynced     bool // meaningful only when MappingConfigured
	Added             int
	Removed           int
	Err               error
}

// SyncCorporation runs one pass for a corporation. Candidates are tried in
// order until one syncs the titles; membership is synced only after that,
// and only when a mapping exists, again trying every candidate in order.
// Failures are reported in the Outcome, never returned.
func (e *Engine) SyncCorporation(ctx context.Context, corporationID int64, candidates []primitive.ObjectID) Outcome {
	log := e.log.With(zap.Int64("corporation_id", corporationID))
	out := Outcome{CorporationID: corporationID, Candidates: len(candidates)}
	log.Info("syncing corporation", zap.Int("candidates", len(candidates)))

	for _, uid := range candidates {
		log.Info("attempting title sync", zap.String("user_id", uid.Hex()))
		if err := e.SyncTitles(ctx, corporationID, uid); err != nil {
			log.Info("title sync failed, trying next", zap.String("user_id", uid.Hex()), zap.Error(err))
			continue
		}
		log.Info("title sync succeeded", zap.String("user_id", uid.Hex()))
		out.TitlesSynced = true
		break
	}
	if !out.TitlesSynced {
		log.Warn("no valid tokens for corporation, titles not synced")
		out.Err = fmt.Errorf("titles: %w", ErrCandidatesExhausted)
		e.metrics.corporation(out)
		return out
	}

	mapping, err := e.Mappings.GetByCorporation(ctx, corporationID)
	if err != nil {
		log.Error("failed to load title mapping", zap.Error(err))
		out.Err = fmt.Errorf("load mapping: %w", err)
		e.metrics.corporation(out)
		return out
	}
	if mapping == nil {
		log.Info("no selected title, skipping member sync")
		e.metrics.corporation(out)
		return out
	}
	out.MappingConfigured = true

	for _, uid := range candidates {
		log.Info("attempting member sync", zap.String("user_id", uid.Hex()))
		change, err := e.SyncMembers(ctx, corporationID, uid)
		if errors.Is(err, ErrNoMapping) {
			// Mapping removed while the pass was running.
			out.MappingConfigured = false
			break
		}
		if err != nil {
			log.Info("member sync failed, trying next", zap.String("user_id", uid.Hex()), zap.Error(err))
			continue
		}
		log.Info("member sync succeeded", zap.String("user_id", uid.Hex()))
		out.MembersSynced = true
		out.Added = len(change.Added)
		out.Removed = len(change.Removed)
		break
	}
	if out.MappingConfigured && !out.MembersSynced {
		log.Warn("no valid token for member sync")
		out.Err = fmt.Errorf("members: %w", ErrCandidatesExhausted)
	}

	e.metrics.corporation(out)
	return out
}
