package configstore_test

import (
	"testing"

	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
)

func TestStore_Get_CreatesDefaultsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := configstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first.Embed.Title != models.DefaultPanelTitle {
		t.Errorf("Embed.Title = %q, want default", first.Embed.Title)
	}
	if first.Button.Label != models.DefaultButtonLabel || first.EmailTemplate != models.DefaultEmailTemplate {
		t.Errorf("defaults not applied: %+v", first)
	}

	second, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Get created a second document")
	}
	n, _ := db.Collection("bot_config").CountDocuments(ctx, map[string]any{})
	if n != 1 {
		t.Errorf("bot_config has %d documents, want 1", n)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := configstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logCh := "111111111111111111"
	color := 0x123456
	cfg, err := store.Update(ctx, configstore.Update{LogChannelID: &logCh, EmbedColor: &color})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if cfg.LogChannelID != logCh || cfg.Embed.Color != color {
		t.Errorf("update not applied: %+v", cfg)
	}
	if cfg.Embed.Title != models.DefaultPanelTitle {
		t.Errorf("untouched field changed: %q", cfg.Embed.Title)
	}

	if err := store.SetRequestMessage(ctx, "222222222222222222"); err != nil {
		t.Fatalf("SetRequestMessage failed: %v", err)
	}
	cfg, _ = store.Get(ctx)
	if cfg.RequestMessageID != "222222222222222222" {
		t.Errorf("RequestMessageID = %q", cfg.RequestMessageID)
	}
}
