// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	name   string
	ensure func(context.Context, *mongo.Database) error
}

var all = []collectionIndexes{
	{"users", ensureUsers},
	{"groups", ensureGroups},
	{"group_memberships", ensureGroupMemberships},
	{"owners", ensureOwners},
	{"titles", ensureTitles},
	{"selected_titles", ensureSelectedTitles},
	{"characters", ensureCharacters},
	{"sso_tokens", ensureTokens},
	{"sync_runs", ensureSyncRuns},
	{"audit_events", ensureAuditEvents},
}

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, ci := range all {
		if err := ci.ensure(ctx, db); err != nil {
			problems = append(problems, ci.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolValue(p *bool) bool {
	return p != nil && *p
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB return IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// recreate drops the named index and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, dropName string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, dropName); err != nil {
		return fmt.Errorf("drop %s failed: %w", dropName, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		fail := func(err error) {
			if isDuplicateKeyErr(err) && boolValue(desiredUnique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), desiredName, desiredSig))
				return
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
		}

		existing, err := listExisting(ctx, coll)
		if err != nil {
			// A missing collection lists as empty on most servers; anything
			// else is logged and CreateOne gets to decide.
			zap.L().Debug("list indexes failed",
				zap.String("collection", coll.Name()),
				zap.Error(err))
		}

		if ex, ok := existing[desiredSig]; ok {
			switch {
			case boolValue(desiredUnique) != boolValue(ex.Unique):
				// Options changed (e.g. upgrading to unique).
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					fail(err)
					continue
				}
				zap.L().Info("index dropped and recreated",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig),
					zap.Bool("unique", boolValue(desiredUnique)),
					zap.Duration("took", time.Since(start)))
			case desiredName != "" && ex.Name != desiredName:
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					fail(err)
					continue
				}
				zap.L().Info("index renamed",
					zap.String("collection", coll.Name()),
					zap.String("from", ex.Name),
					zap.String("to", desiredName),
					zap.Duration("took", time.Since(start)))
			default:
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Raced with another writer; reconcile against what is there now.
			if again, lerr := listExisting(ctx, coll); lerr == nil {
				if ex, ok := again[desiredSig]; ok {
					if boolValue(desiredUnique) == boolValue(ex.Unique) {
						continue
					}
					err = recreate(ctx, coll, ex.Name, m)
				}
			}
		}
		if err != nil {
			fail(err)
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("created_name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", boolValue(desiredUnique)),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Usernames are unique after case/diacritic folding.
		{
			Keys:    bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_usernameci"),
		},
		{
			Keys:    bson.D{{Key: "main_character_id", Value: 1}},
			Options: options.Index().SetName("idx_users_main_character"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groups_nameci"),
		},
	})
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_memberships"), []mongo.IndexModel{
		// Exactly one membership per (group, user). The group_id prefix also
		// serves member listings and counts.
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_gm_group_user"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_gm_user"),
		},
	})
}

func ensureOwners(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("owners"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_owners_user"),
		},
		// Sweep order.
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_owners_createdat__id"),
		},
	})
}

func ensureTitles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("titles"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "corporation_id", Value: 1}, {Key: "title_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_titles_corp_title"),
		},
	})
}

func ensureSelectedTitles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("selected_titles"), []mongo.IndexModel{
		// One mapping per corporation, and a group backs at most one mapping.
		{
			Keys:    bson.D{{Key: "corporation_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_selected_titles_corp"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_selected_titles_group"),
		},
	})
}

func ensureCharacters(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("characters"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "character_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_characters_character"),
		},
		{
			Keys:    bson.D{{Key: "owner_user_id", Value: 1}},
			Options: options.Index().SetName("idx_characters_owner"),
		},
	})
}

func ensureTokens(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("sso_tokens"), []mongo.IndexModel{
		// Newest grant first per user.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_sso_tokens_user_updatedat"),
		},
	})
}

func ensureSyncRuns(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("sync_runs"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "started_at", Value: -1}},
			Options: options.Index().SetName("idx_sync_runs_startedat"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "corporation_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_corp_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
