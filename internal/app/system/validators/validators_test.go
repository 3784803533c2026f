package validators_test

import (
	"testing"
	"time"

	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/app/system/validators"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range []string{"clans", "mentees", "verification_requests", "activity_logs", "bot_config"} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestValidators_RejectInvalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	tests := []struct {
		name string
		coll string
		doc  bson.M
	}{
		{"clan without role", "clans", bson.M{"name": "Alpha", "name_ci": "alpha", "slug": "alpha", "enabled": true}},
		{"clan with blank name", "clans", bson.M{"name": "  ", "name_ci": "", "slug": "x", "role_id": "1", "enabled": true}},
		{"mentee without email", "mentees", bson.M{"full_name": "Ada", "assigned_clan": "Alpha", "assigned_clan_slug": "alpha", "status": "unverified"}},
		{"mentee with unknown status", "mentees", bson.M{"full_name": "Ada", "email": "a@x.io", "assigned_clan": "Alpha", "assigned_clan_slug": "alpha", "status": "approved"}},
		{"request with unknown status", "verification_requests", bson.M{
			"discord_id": "1", "mentee_id": primitive.NewObjectID(), "clan_id": primitive.NewObjectID(),
			"status": "pending_approval", "attempts": 0, "created_at": now,
		}},
		{"request with negative attempts", "verification_requests", bson.M{
			"discord_id": "1", "mentee_id": primitive.NewObjectID(), "clan_id": primitive.NewObjectID(),
			"status": "challenge_issued", "attempts": -1, "created_at": now,
		}},
		{"activity without action", "activity_logs", bson.M{"admin_id": "api-key", "created_at": now}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc); err == nil {
				t.Errorf("expected validation error inserting into %s", tt.coll)
			}
		})
	}
}

func TestValidators_AcceptStoreDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	clan, err := clanstore.New(db).Create(ctx, models.Clan{Name: "Alpha", RoleID: "111111111111111111", Enabled: true})
	if err != nil {
		t.Fatalf("create clan: %v", err)
	}
	if _, err := menteestore.New(db).Create(ctx, models.Mentee{
		FullName: "Ada", Email: "ada@example.com", AssignedClan: "Alpha",
	}); err != nil {
		t.Fatalf("create mentee: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	m := fx.CreateVerifiedMentee(ctx, "Bo", "bo@example.com", "Alpha", "300000000000000001")
	fx.CreateRequest(ctx, m, clan, models.RequestVerified, time.Now())
}
