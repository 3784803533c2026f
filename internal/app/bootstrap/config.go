// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for clanverify.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, discord_token, etc.
//   - Environment variables: CLANVERIFY_MONGO_URI, CLANVERIFY_DISCORD_TOKEN, etc.
//   - Command-line flags: --mongo_uri, --discord_token, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clanverify", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address (host:port); blank keeps the request guard in process"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Discord
	{Name: "discord_token", Default: "", Desc: "Discord bot token (blank disables the gateway)"},
	{Name: "discord_guild_id", Default: "", Desc: "Discord server (guild) id the bot manages"},

	// Admin API
	{Name: "admin_api_key_hash", Default: "", Desc: "bcrypt hash of the admin API key (see `clanverify hash-key`)"},
	{Name: "rate_limit_per_minute", Default: 120, Desc: "Admin API requests allowed per client IP per minute"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs codes instead of sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@devweekends.com", Desc: "From email address"},

	// Verification codes
	{Name: "otp_expiry", Default: "10m", Desc: "Verification code expiry (e.g., 10m, 1h, 90s)"},

	// Daily sync
	{Name: "sync_startup_delay", Default: "30s", Desc: "Delay before the first drift reconciliation after boot"},
	{Name: "sync_timezone", Default: "UTC", Desc: "IANA timezone the midnight drift reconciliation runs in"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CLANVERIFY_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLANVERIFY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisAddr:     strings.TrimSpace(appValues.String("redis_addr")),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		DiscordToken:   strings.TrimSpace(appValues.String("discord_token")),
		DiscordGuildID: strings.TrimSpace(appValues.String("discord_guild_id")),

		AdminAPIKeyHash:    strings.TrimSpace(appValues.String("admin_api_key_hash")),
		RateLimitPerMinute: appValues.Int("rate_limit_per_minute"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		OTPExpiry: appValues.Duration("otp_expiry", 10*time.Minute),

		SyncStartupDelay: appValues.Duration("sync_startup_delay", 30*time.Second),
		SyncTimezone:     appValues.String("sync_timezone"),

		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is always checked. Production additionally requires the
// Discord credentials and the admin key hash; dev runs without them with
// the gateway or admin API switched off.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.OTPExpiry <= 0 {
		return errors.New("otp_expiry must be positive")
	}
	if appCfg.SyncTimezone != "" {
		if _, err := time.LoadLocation(appCfg.SyncTimezone); err != nil {
			return fmt.Errorf("invalid sync_timezone %q: %w", appCfg.SyncTimezone, err)
		}
	}
	if appCfg.DiscordToken != "" && appCfg.DiscordGuildID == "" {
		return errors.New("discord_token is set but discord_guild_id is empty")
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.DiscordToken == "" {
			return errors.New("discord_token is required in prod")
		}
		if appCfg.AdminAPIKeyHash == "" {
			return errors.New("admin_api_key_hash is required in prod")
		}
	}
	return nil
}
