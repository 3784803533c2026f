package clanstore_test

import (
	"errors"
	"testing"

	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
)

func TestStore_Create_DerivesSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clanstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Create(ctx, models.Clan{Name: "  Crimson Guard! ", RoleID: "r1", Enabled: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.Name != "Crimson Guard!" || c.Slug != "crimson-guard" {
		t.Errorf("got name=%q slug=%q", c.Name, c.Slug)
	}

	if _, err := store.Create(ctx, models.Clan{Name: "crimson guard", Enabled: true}); !errors.Is(err, clanstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
	if _, err := store.Create(ctx, models.Clan{Name: "   "}); !errors.Is(err, clanstore.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}

	got, err := store.GetBySlug(ctx, "Crimson-Guard")
	if err != nil || got.ID != c.ID {
		t.Errorf("GetBySlug: %v %+v", err, got)
	}
	got, err = store.GetByName(ctx, "CRIMSON GUARD!")
	if err != nil || got.ID != c.ID {
		t.Errorf("GetByName: %v %+v", err, got)
	}
}

func TestStore_ListEnabled_Sorted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clanstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, c := range []models.Clan{
		{Name: "Zeta", Enabled: true},
		{Name: "alpha", Enabled: true},
		{Name: "Mid", Enabled: false},
	} {
		if _, err := store.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.Name, err)
		}
	}

	all, _ := store.List(ctx)
	if len(all) != 3 || all[0].Name != "alpha" || all[2].Name != "Zeta" {
		t.Errorf("List not sorted by name: %+v", all)
	}
	enabled, _ := store.ListEnabled(ctx)
	if len(enabled) != 2 {
		t.Errorf("ListEnabled returned %d, want 2", len(enabled))
	}
}

func TestStore_Update_Rename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clanstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, _ := store.Create(ctx, models.Clan{Name: "Old Name", Enabled: true})
	other, _ := store.Create(ctx, models.Clan{Name: "Other", Enabled: true})

	name := "New Name"
	before, after, err := store.Update(ctx, c.ID, clanstore.Update{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if before.Name != "Old Name" || after.Slug != "new-name" {
		t.Errorf("before=%q after slug=%q", before.Name, after.Slug)
	}

	clash := "other"
	if _, _, err := store.Update(ctx, c.ID, clanstore.Update{Name: &clash}); !errors.Is(err, clanstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	n, err := store.Delete(ctx, other.ID)
	if err != nil || n != 1 {
		t.Errorf("Delete: n=%d err=%v", n, err)
	}
	if _, err := store.GetByID(ctx, other.ID); !errors.Is(err, clanstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
