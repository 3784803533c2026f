package activitystore_test

import (
	"testing"
	"time"

	activitystore "github.com/devweekends/clanverify/internal/app/store/activity"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
)

func TestStore_CreateAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activitystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour).UTC()
	for i, action := range []string{"CSV_UPLOAD", "MENTEE_DELETE", "MENTEE_DELETE"} {
		err := store.Create(ctx, models.ActivityLog{
			Action:    action,
			AdminID:   "admin-1",
			AdminName: "Admin",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Recent returned %d, want 3", len(all))
	}
	if all[0].Action != "MENTEE_DELETE" || all[2].Action != "CSV_UPLOAD" {
		t.Errorf("Recent not newest first: %v, %v", all[0].Action, all[2].Action)
	}

	deletes, _ := store.Recent(ctx, "MENTEE_DELETE", 10)
	if len(deletes) != 2 {
		t.Errorf("filtered Recent returned %d, want 2", len(deletes))
	}

	limited, _ := store.Recent(ctx, "", 1)
	if len(limited) != 1 {
		t.Errorf("limit not applied: %d", len(limited))
	}

	n, _ := store.CountSince(ctx, base.Add(30*time.Second))
	if n != 2 {
		t.Errorf("CountSince = %d, want 2", n)
	}
}
