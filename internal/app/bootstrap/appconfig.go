// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// HTTP listener, logging and TLS; everything below is specific to clan
// verification.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis backs the cross-process single-flight guard. Blank RedisAddr
	// keeps the guard in process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Discord bot
	DiscordToken   string // bot token; blank disables the gateway
	DiscordGuildID string // the one server the bot manages

	// AdminAPIKeyHash is the bcrypt hash of the admin API key.
	AdminAPIKeyHash string

	// Email/SMTP for verification codes
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	OTPExpiry time.Duration // lifetime of an issued code

	// Daily drift reconciliation
	SyncStartupDelay time.Duration // delay before the first run after boot
	SyncTimezone     string        // IANA zone the midnight schedule runs in

	AuditLogAdmin      string // "all", "db", "log" or "off"
	RateLimitPerMinute int    // admin API requests per client IP per minute
}

// Location resolves SyncTimezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if c.SyncTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.SyncTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
