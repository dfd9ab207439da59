package titlesync

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MemberChange describes one membership reconciliation.
type MemberChange struct {
	GroupID    primitive.ObjectID
	TitleID    int64
	Holders    int // characters carrying the mapped title
	Unresolved int // holders with no local owner
	Target     int // distinct local users that should be in the group
	Added      []primitive.ObjectID
	Removed    []primitive.ObjectID
}

// SyncMembers reconciles the corporation's mapped group with the member
// titles ESI reports, reading them with userID's token. After it succeeds
// the group holds exactly the local owners of characters carrying the
// mapped title.
//
// A corporation without a mapping returns ErrNoMapping before any token is
// resolved or ESI is called. Other errors are as for SyncTitles. The
// response ETag is remembered only after the group is reconciled.
func (e *Engine) SyncMembers(ctx context.Context, corporationID int64, userID primitive.ObjectID) (MemberChange, error) {
	log := e.log.With(
		zap.Int64("corporation_id", corporationID),
		zap.String("user_id", userID.Hex()))
	log.Info("fetching member titles")

	mctx, cancel := e.bound(ctx, timeouts.Short, "mapping lookup")
	mapping, err := e.Mappings.GetByCorporation(mctx, corporationID)
	cancel()
	if err != nil {
		return MemberChange{}, fmt.Errorf("load mapping: %w", err)
	}
	if mapping == nil {
		log.Warn("no selected title, skipping member sync")
		return MemberChange{}, ErrNoMapping
	}

	tok, err := e.token(ctx, log, corporationID, userID)
	if err != nil {
		return MemberChange{}, err
	}

	etag, gen := e.etags.get(resourceMembers, corporationID)
	assignments, tag, err := e.Remote.MemberTitles(ctx, corporationID, tok, etag)
	if err != nil {
		return MemberChange{}, e.remoteFailure(ctx, log, corporationID, userID, "member_titles", err)
	}
	log.Debug("retrieved member titles", zap.Int("count", len(assignments)))

	change, err := e.reconcile(ctx, log, corporationID, mapping.GroupID, mapping.TitleID, assignments)
	if err != nil {
		e.etags.forget(resourceMembers, corporationID)
		return MemberChange{}, err
	}
	e.etags.commit(resourceMembers, corporationID, gen, tag)

	e.validate(ctx, log, userID)
	log.Info("group sync completed")
	return change, nil
}

// reconcile makes the group hold exactly the local owners of the characters
// carrying titleID.
func (e *Engine) reconcile(ctx context.Context, log *zap.Logger, corporationID int64, groupID primitive.ObjectID, titleID int64, assignments []esi.MemberTitles) (MemberChange, error) {
	log = log.With(
		zap.Int64("title_id", titleID),
		zap.String("group_id", groupID.Hex()))
	change := MemberChange{GroupID: groupID, TitleID: titleID}

	holders := holdersOf(assignments, titleID)
	change.Holders = len(holders)

	octx, cancel := e.bound(ctx, timeouts.Medium, "resolve owners")
	owners, err := e.Identity.OwningUsers(octx, holders)
	cancel()
	if err != nil {
		return MemberChange{}, fmt.Errorf("resolve owners: %w", err)
	}
	target := make(map[primitive.ObjectID]struct{}, len(owners))
	for _, charID := range holders {
		uid, ok := owners[charID]
		if !ok {
			change.Unresolved++
			log.Debug("character has no owner, skipping", zap.Int64("character_id", charID))
			continue
		}
		target[uid] = struct{}{}
	}
	change.Target = len(target)
	log.Info("characters have selected title",
		zap.Int("characters", change.Holders),
		zap.Int("unresolved", change.Unresolved),
		zap.Int("users", change.Target))

	rctx, cancel := e.bound(ctx, timeouts.Medium, "group member list")
	currentIDs, err := e.Members.MemberIDs(rctx, groupID)
	cancel()
	if err != nil {
		return MemberChange{}, fmt.Errorf("load group members: %w", err)
	}
	current := make(map[primitive.ObjectID]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		current[id] = struct{}{}
	}

	toAdd := difference(target, current)
	toRemove := difference(current, target)

	if len(toAdd) > 0 {
		wctx, cancel := e.bound(ctx, timeouts.Batch, "group member add")
		n, err := e.Members.AddUsers(wctx, groupID, toAdd)
		cancel()
		if err != nil {
			return MemberChange{}, fmt.Errorf("add group members: %w", err)
		}
		log.Info("added users to group", zap.Int("count", n))
	}
	if len(toRemove) > 0 {
		wctx, cancel := e.bound(ctx, timeouts.Batch, "group member remove")
		n, err := e.Members.RemoveUsers(wctx, groupID, toRemove)
		cancel()
		if err != nil {
			return MemberChange{}, fmt.Errorf("remove group members: %w", err)
		}
		log.Info("removed users from group", zap.Int("count", n))
	}
	change.Added = toAdd
	change.Removed = toRemove

	if e.audit != nil && (len(toAdd) > 0 || len(toRemove) > 0) {
		actx, cancel := e.bound(ctx, timeouts.Short, "audit membership change")
		e.audit.MembershipChanged(actx, corporationID, groupID, titleID, toAdd, toRemove)
		cancel()
	}
	e.metrics.membersChanged(len(toAdd), len(toRemove))
	return change, nil
}

// holdersOf returns the distinct characters whose titles include titleID.
func holdersOf(assignments []esi.MemberTitles, titleID int64) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, m := range assignments {
		for _, t := range m.Titles {
			if t != titleID {
				continue
			}
			if _, dup := seen[m.CharacterID]; !dup {
				seen[m.CharacterID] = struct{}{}
				out = append(out, m.CharacterID)
			}
			break
		}
	}
	return out
}

// difference returns a - b in a stable order.
func difference(a, b map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	var out []primitive.ObjectID
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
