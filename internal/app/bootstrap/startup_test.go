package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/waffle/config"
	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	"github.com/devweekends/clanverify/internal/app/system/flightguard"
	"github.com/devweekends/clanverify/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "clanverify",
		OTPExpiry:          10 * time.Minute,
		SyncTimezone:       "UTC",
		RateLimitPerMinute: 100,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"dev defaults", "dev", func(*AppConfig) {}, ""},
		{"bad mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "postgres://x" }, "invalid MongoDB URI"},
		{"zero otp expiry", "dev", func(c *AppConfig) { c.OTPExpiry = 0 }, "otp_expiry"},
		{"unknown timezone", "dev", func(c *AppConfig) { c.SyncTimezone = "Mars/Olympus" }, "sync_timezone"},
		{"token without guild", "dev", func(c *AppConfig) { c.DiscordToken = "tok" }, "discord_guild_id"},
		{"prod without token", "prod", func(c *AppConfig) { c.AdminAPIKeyHash = "h" }, "discord_token"},
		{"prod without key hash", "prod", func(c *AppConfig) {
			c.DiscordToken, c.DiscordGuildID = "tok", "1"
		}, "admin_api_key_hash"},
		{"prod complete", "prod", func(c *AppConfig) {
			c.DiscordToken, c.DiscordGuildID, c.AdminAPIKeyHash = "tok", "1", "h"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateConfig() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidateConfig() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAppConfig_Location(t *testing.T) {
	if got := (AppConfig{}).Location(); got != time.UTC {
		t.Errorf("blank timezone = %v, want UTC", got)
	}
	if got := (AppConfig{SyncTimezone: "Asia/Karachi"}).Location(); got.String() != "Asia/Karachi" {
		t.Errorf("Location() = %v, want Asia/Karachi", got)
	}
}

func TestNewGuard(t *testing.T) {
	if _, ok := newGuard(nil, testLogger()).(*flightguard.Local); !ok {
		t.Error("nil redis should give the in-process guard")
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	g := newGuard(rdb, testLogger())
	if _, ok := g.(*flightguard.Redis); !ok {
		t.Fatalf("newGuard(redis) = %T, want *flightguard.Redis", g)
	}
	release, err := g.Acquire(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !mr.Exists(guardKeyPrefix + "user-1") {
		t.Error("lock key not written under the guard prefix")
	}
	release()
}

func TestBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := adminauth.HashKey("letmein")
	if err != nil {
		t.Fatalf("HashKey: %v", err)
	}
	appCfg := validConfig()
	appCfg.AdminAPIKeyHash = hash

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, App: &Runtime{}}
	coreCfg := &config.CoreConfig{Env: "dev"}
	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	t.Cleanup(func() {
		// The test database owns the client.
		_ = Shutdown(context.Background(), coreCfg, appCfg, DBDeps{App: deps.App}, testLogger())
	})

	if deps.App.Platform != nil {
		t.Error("platform should stay nil without a discord token")
	}

	h, err := BuildHandler(coreCfg, appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "ok" || body["discord"] != "disabled" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "go_goroutines") {
			t.Error("metrics output missing the Go collector")
		}
	})

	apiTests := []struct {
		name string
		path string
		key  string
		want int
	}{
		{"no key", "/api/clans", "", http.StatusUnauthorized},
		{"wrong key", "/api/clans", "nope", http.StatusUnauthorized},
		{"clans", "/api/clans", "letmein", http.StatusOK},
		{"stats", "/api/stats", "letmein", http.StatusOK},
		{"config", "/api/config", "letmein", http.StatusOK},
		{"discord offline", "/api/discord/roles", "letmein", http.StatusBadGateway},
	}
	for _, tt := range apiTests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(adminauth.HeaderAPIKey, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d: %s", tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	if _, err := BuildHandler(&config.CoreConfig{}, validConfig(), DBDeps{}, testLogger()); err == nil {
		t.Error("BuildHandler without Startup should fail")
	}
}
