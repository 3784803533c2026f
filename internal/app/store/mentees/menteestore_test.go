package menteestore_test

import (
	"errors"
	"testing"
	"time"

	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Normalizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Mentee{
		FullName:     "  Ada Lovelace ",
		Email:        "  Ada@Example.COM ",
		AssignedClan: "  Crimson   Guard ",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lower-cased", created.Email)
	}
	if created.AssignedClan != "Crimson Guard" {
		t.Errorf("AssignedClan = %q", created.AssignedClan)
	}
	if created.AssignedClanSlug != "crimson-guard" {
		t.Errorf("AssignedClanSlug = %q, want crimson-guard", created.AssignedClanSlug)
	}
	if created.Status != models.MenteeUnverified {
		t.Errorf("Status = %q, want unverified", created.Status)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Mentee{FullName: "A", Email: "a@x.com", AssignedClan: "X"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Mentee{FullName: "B", Email: "A@X.com", AssignedClan: "Y"})
	if !errors.Is(err, menteestore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Update_RecomputesSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Mentee{FullName: "A", Email: "a@x.com", AssignedClan: "Old Clan"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	label := "New  Clan!"
	updated, err := store.Update(ctx, m.ID, menteestore.Update{AssignedClan: &label})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.AssignedClanSlug != "new-clan" {
		t.Errorf("AssignedClanSlug = %q, want new-clan", updated.AssignedClanSlug)
	}

	if _, err := store.Create(ctx, models.Mentee{FullName: "B", Email: "b@x.com", AssignedClan: "X"}); err != nil {
		t.Fatalf("Create b failed: %v", err)
	}
	taken := "b@x.com"
	if _, err := store.Update(ctx, m.ID, menteestore.Update{Email: &taken}); !errors.Is(err, menteestore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), menteestore.Update{AssignedClan: &label}); !errors.Is(err, menteestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_VerificationLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Mentee{FullName: "A", Email: "a@x.com", AssignedClan: "Crimson Guard"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.MarkChallengeIssued(ctx, m.ID, "123456789012345678", "ada"); err != nil {
		t.Fatalf("MarkChallengeIssued failed: %v", err)
	}
	if _, err := store.VerifiedByDiscordID(ctx, "123456789012345678"); !errors.Is(err, menteestore.ErrNotFound) {
		t.Errorf("expected no verified mentee yet, got %v", err)
	}

	if err := store.MarkVerified(ctx, m.ID, time.Now()); err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}
	got, err := store.VerifiedByDiscordID(ctx, "123456789012345678")
	if err != nil {
		t.Fatalf("VerifiedByDiscordID failed: %v", err)
	}
	if !got.EmailVerified || got.VerifiedAt == nil {
		t.Errorf("expected email_verified and verified_at set, got %+v", got)
	}

	list, err := store.ListVerifiedBySlug(ctx, "crimson-guard")
	if err != nil {
		t.Fatalf("ListVerifiedBySlug failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListVerifiedBySlug returned %d, want 1", len(list))
	}

	// A second mentee cannot be verified with the same Discord account.
	other, _ := store.Create(ctx, models.Mentee{FullName: "B", Email: "b@x.com", AssignedClan: "Crimson Guard"})
	_ = store.MarkChallengeIssued(ctx, other.ID, "123456789012345678", "ada")
	if err := store.MarkVerified(ctx, other.ID, time.Now()); !errors.Is(err, menteestore.ErrDiscordTaken) {
		t.Errorf("expected ErrDiscordTaken, got %v", err)
	}

	before, err := store.Unlink(ctx, m.ID)
	if err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}
	if before.DiscordID != "123456789012345678" {
		t.Errorf("Unlink should return previous binding, got %q", before.DiscordID)
	}
	after, _ := store.GetByID(ctx, m.ID)
	if after.DiscordID != "" || after.Status != models.MenteeUnverified || after.EmailVerified || after.VerifiedAt != nil {
		t.Errorf("Unlink did not reset mentee: %+v", after)
	}
}

func TestStore_ResetChallenge_LeavesVerified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pending, _ := store.Create(ctx, models.Mentee{FullName: "A", Email: "a@x.com", AssignedClan: "X"})
	verified, _ := store.Create(ctx, models.Mentee{FullName: "B", Email: "b@x.com", AssignedClan: "X"})
	_ = store.MarkChallengeIssued(ctx, pending.ID, "111111111111111111", "u")
	_ = store.MarkChallengeIssued(ctx, verified.ID, "222222222222222222", "v")
	_ = store.MarkVerified(ctx, verified.ID, time.Now())

	n, err := store.ResetChallenge(ctx, "111111111111111111")
	if err != nil {
		t.Fatalf("ResetChallenge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ResetChallenge modified %d, want 1", n)
	}
	if n, _ := store.ResetChallenge(ctx, "222222222222222222"); n != 0 {
		t.Errorf("ResetChallenge touched a verified mentee")
	}
	got, _ := store.GetByID(ctx, pending.ID)
	if got.DiscordID != "" || got.Status != models.MenteeUnverified {
		t.Errorf("pending mentee not reset: %+v", got)
	}
}

func TestStore_ListAndStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, e := range []string{"a@x.com", "b@x.com", "c@y.com"} {
		if _, err := store.Create(ctx, models.Mentee{FullName: "Name " + e, Email: e, AssignedClan: "Clan"}); err != nil {
			t.Fatalf("Create %s: %v", e, err)
		}
	}
	c, _ := store.GetByEmail(ctx, "c@y.com")
	_ = store.MarkChallengeIssued(ctx, c.ID, "333333333333333333", "c")

	rows, total, err := store.List(ctx, menteestore.Filter{Search: "x.com"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("search total=%d rows=%d, want 2", total, len(rows))
	}

	_, total, _ = store.List(ctx, menteestore.Filter{Status: models.MenteeChallengeIssued})
	if total != 1 {
		t.Errorf("status filter total = %d, want 1", total)
	}

	rows, total, _ = store.List(ctx, menteestore.Filter{Page: 2, PageSize: 2})
	if total != 3 || len(rows) != 1 {
		t.Errorf("page 2 total=%d rows=%d, want 3/1", total, len(rows))
	}

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Total != 3 || st.ChallengeIssued != 1 || st.Unverified != 2 || st.Verified != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestStore_BulkUpsert_ResetsStatusKeepsBinding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, _ := store.Create(ctx, models.Mentee{FullName: "Old", Email: "a@x.com", AssignedClan: "Old Clan"})
	_ = store.MarkChallengeIssued(ctx, m.ID, "444444444444444444", "a")
	_ = store.MarkVerified(ctx, m.ID, time.Now())

	res, err := store.BulkUpsert(ctx, []menteestore.ImportRow{
		{FullName: "New Name", Email: "A@x.com", Clan: "Crimson Guard"},
		{FullName: "", Email: "b@x.com", Clan: "Crimson Guard"},
	})
	if err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}
	if res.Inserted != 1 || res.Updated != 1 {
		t.Errorf("result = %+v, want 1 inserted 1 updated", res)
	}

	got, _ := store.GetByEmail(ctx, "a@x.com")
	if got.Status != models.MenteeUnverified || got.EmailVerified {
		t.Errorf("re-import should demote to unverified, got %+v", got)
	}
	if got.DiscordID != "444444444444444444" {
		t.Errorf("re-import dropped discord binding: %q", got.DiscordID)
	}
	if got.FullName != "New Name" || got.AssignedClanSlug != "crimson-guard" {
		t.Errorf("re-import did not overwrite fields: %+v", got)
	}

	b, _ := store.GetByEmail(ctx, "b@x.com")
	if b.FullName != "Unknown" {
		t.Errorf("missing name should default to Unknown, got %q", b.FullName)
	}
}

func TestStore_RelabelClan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := menteestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _ = store.Create(ctx, models.Mentee{FullName: "A", Email: "a@x.com", AssignedClan: "Old Clan"})
	_, _ = store.Create(ctx, models.Mentee{FullName: "B", Email: "b@x.com", AssignedClan: "old clan"})
	_, _ = store.Create(ctx, models.Mentee{FullName: "C", Email: "c@x.com", AssignedClan: "Old Clan Two"})

	n, err := store.RelabelClan(ctx, "Old Clan", "New Clan")
	if err != nil {
		t.Fatalf("RelabelClan failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RelabelClan modified %d, want 2", n)
	}
	c, _ := store.GetByEmail(ctx, "c@x.com")
	if c.AssignedClan != "Old Clan Two" {
		t.Errorf("RelabelClan matched a longer label: %q", c.AssignedClan)
	}
}
