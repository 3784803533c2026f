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

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"clans", clanIndexes()},
		{"mentees", menteeIndexes()},
		{"verification_requests", requestIndexes()},
		{"bot_config", botConfigIndexes()},
		{"activity_logs", activityLogIndexes()},
	}
	for _, s := range sets {
		if err := ensureIndexSet(ctx, db.Collection(s.coll), s.models, logger); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Desired indexes                                                             */
/* -------------------------------------------------------------------------- */

func clanIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("uniq_clans_slug").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_clans_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "enabled", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_clans_enabled_name"),
		},
	}
}

func menteeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_mentees_email").SetUnique(true),
		},
		// one verified mentee per Discord account
		{
			Keys: bson.D{{Key: "discord_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_mentees_verified_discord").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "verified"}),
		},
		{
			Keys:    bson.D{{Key: "assigned_clan_slug", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_mentees_clan_status"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_mentees_status_created"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_mentees_full_name_ci"),
		},
	}
}

func requestIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// at most one open challenge per Discord account
		{
			Keys: bson.D{{Key: "discord_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_requests_open_discord").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "challenge_issued"}),
		},
		{
			Keys:    bson.D{{Key: "discord_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_requests_discord_status"),
		},
		{
			Keys:    bson.D{{Key: "mentee_id", Value: 1}},
			Options: options.Index().SetName("idx_requests_mentee"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("idx_requests_status_updated"),
		},
		{
			Keys:    bson.D{{Key: "clan_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_requests_clan_status"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_requests_created"),
		},
	}
}

func botConfigIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetName("uniq_bot_config_key").SetUnique(true),
		},
	}
}

func activityLogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_created"),
		},
		{
			Keys:    bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_action_created"),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.M `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func partialSig(m any) string {
	if m == nil {
		return ""
	}
	switch v := m.(type) {
	case bson.M:
		if len(v) == 0 {
			return ""
		}
	}
	b, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return fmt.Sprint(m)
	}
	return string(b)
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// indexSig identifies an index by key pattern plus partial filter, since
// the same keys may be indexed more than once with different filters.
func indexSig(keys bson.D, partial any) string {
	return keySig(keys) + "|" + partialSig(partial)
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		var partial any
		if len(idx.Partial) > 0 {
			partial = idx.Partial
		}
		out[indexSig(idx.Key, partial)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	var errs []string

	existing, err := listExisting(ctx, coll, logger)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		var desiredPartial any
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
			desiredPartial = m.Options.PartialFilterExpression
		}
		keys := m.Keys.(bson.D)
		sig := indexSig(keys, desiredPartial)
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if boolVal(desiredUnique) == boolVal(ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				logger.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", keySig(keys)))
				continue
			}
			// Name or uniqueness differs. Drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				logger.Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && boolVal(desiredUnique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		logger.Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", keySig(keys)),
			zap.Bool("unique", boolVal(desiredUnique)),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
