package indexes_test

import (
	"testing"

	"github.com/devweekends/clanverify/internal/app/system/indexes"
	"github.com/devweekends/clanverify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t) // already ran EnsureAll once
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := map[string][]string{
		"clans":                 {"uniq_clans_slug", "idx_clans_name_ci"},
		"mentees":               {"uniq_mentees_email", "uniq_mentees_verified_discord"},
		"verification_requests": {"uniq_requests_open_discord", "idx_requests_status_updated"},
		"bot_config":            {"uniq_bot_config_key"},
		"activity_logs":         {"idx_activity_created"},
	}

	for coll, names := range want {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("%s: list indexes: %v", coll, err)
		}
		got := map[string]bool{}
		for cur.Next(ctx) {
			var idx bson.M
			if err := cur.Decode(&idx); err != nil {
				t.Fatalf("decode index: %v", err)
			}
			if n, ok := idx["name"].(string); ok {
				got[n] = true
			}
		}
		cur.Close(ctx)

		for _, n := range names {
			if !got[n] {
				t.Errorf("%s: missing index %q", coll, n)
			}
		}
	}
}

func TestEnsureAll_OpenRequestUniquePerDiscordUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("verification_requests")
	if _, err := c.InsertOne(ctx, bson.M{"discord_id": "111111111111111111", "status": "challenge_issued"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"discord_id": "111111111111111111", "status": "failed"}); err != nil {
		t.Fatalf("terminal insert should be allowed: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"discord_id": "111111111111111111", "status": "challenge_issued"}); err == nil {
		t.Fatal("expected duplicate key error for second open request")
	}
}
