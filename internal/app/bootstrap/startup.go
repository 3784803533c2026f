// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dalemusser/waffle/config"
	"github.com/devweekends/clanverify/internal/app/admin"
	"github.com/devweekends/clanverify/internal/app/importer"
	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/platform/discord"
	"github.com/devweekends/clanverify/internal/app/reconcile"
	activitystore "github.com/devweekends/clanverify/internal/app/store/activity"
	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/flightguard"
	"github.com/devweekends/clanverify/internal/app/system/mailer"
	"github.com/devweekends/clanverify/internal/app/system/metrics"
	"github.com/devweekends/clanverify/internal/app/system/ratelimit"
	"github.com/devweekends/clanverify/internal/app/system/tasks"
	"github.com/devweekends/clanverify/internal/app/verification"
	"github.com/devweekends/clanverify/internal/app/voicerooms"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// guardKeyPrefix namespaces single-flight keys in a shared Redis.
const guardKeyPrefix = "clanverify:flight:"

// Runtime holds the services Startup builds and BuildHandler and Shutdown
// use.
type Runtime struct {
	Metrics  *metrics.Metrics
	Clans    *clanstore.Store
	Mentees  *menteestore.Store
	Requests *requeststore.Store
	Config   *configstore.Store
	Activity *activitystore.Store
	Admin    *admin.Service

	// Platform is nil while the Discord gateway is disabled.
	Platform platform.Platform

	limiter     *ratelimit.Limiter
	authLimiter *ratelimit.AuthLimiter
	session     *discordgo.Session
	unregister  func()
	runner      *tasks.DailyRunner
	connected   atomic.Bool
}

// GatewayUp reports whether the Discord gateway session is live.
func (rt *Runtime) GatewayUp() bool {
	return rt.connected.Load()
}

// newGuard picks the Redis guard when a Redis client is available.
func newGuard(rdb *redis.Client, logger *zap.Logger) flightguard.Guard {
	if rdb == nil {
		logger.Info("request guard: in-process")
		return flightguard.NewLocal()
	}
	logger.Info("request guard: redis")
	return flightguard.NewRedis(rdb, guardKeyPrefix, flightguard.DefaultLockTTL, logger)
}

// Startup builds stores and services, opens the Discord gateway when a
// token is configured, and starts the daily drift reconciliation.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.App == nil {
		return fmt.Errorf("startup: runtime not initialized")
	}
	rt := deps.App
	db := deps.MongoDatabase

	rt.Metrics = metrics.New()
	rt.Clans = clanstore.New(db)
	rt.Mentees = menteestore.New(db)
	rt.Requests = requeststore.New(db)
	rt.Config = configstore.New(db)
	rt.Activity = activitystore.New(db)

	perMinute := appCfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	rt.limiter = ratelimit.New(perMinute, time.Minute)
	rt.authLimiter = ratelimit.NewAuthLimiter(10, 15*time.Minute)

	audit := auditlog.New(rt.Activity, logger, auditlog.Config{Admin: appCfg.AuditLogAdmin})
	imp := importer.New(rt.Clans, rt.Mentees, rt.Metrics, logger)

	var reconciler *reconcile.Reconciler
	if appCfg.DiscordToken != "" {
		if err := startDiscord(rt, appCfg, deps, logger); err != nil {
			return err
		}
		reconciler = reconcile.New(rt.Clans, rt.Mentees, rt.Requests, rt.Config, rt.Platform, rt.Metrics, logger)

		runner, err := tasks.NewDailyRunner(tasks.DriftReconcileJob(reconciler, logger), tasks.Midnight,
			appCfg.SyncStartupDelay, 0, appCfg.Location(), logger, rt.Metrics)
		if err != nil {
			return fmt.Errorf("drift reconcile schedule: %w", err)
		}
		runner.Start()
		rt.runner = runner
	} else {
		logger.Warn("discord_token not set; gateway, voice rooms and drift reconciliation are disabled")
	}

	rt.Admin = admin.New(admin.Service{
		DB:         db,
		Clans:      rt.Clans,
		Mentees:    rt.Mentees,
		Requests:   rt.Requests,
		Config:     rt.Config,
		Platform:   rt.Platform,
		Importer:   imp,
		Reconciler: reconciler,
		Audit:      audit,
		Log:        logger,
	})
	return nil
}

// startDiscord opens the gateway session and registers the interaction and
// voice handlers on it.
func startDiscord(rt *Runtime, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	s, err := discordgo.New("Bot " + appCfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates
	s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) { rt.connected.Store(true) })
	s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) { rt.connected.Store(true) })
	s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) { rt.connected.Store(false) })

	adapter := discord.NewAdapter(s, appCfg.DiscordGuildID, logger)
	rt.Platform = adapter

	mail := mailer.New(mailer.SMTPConfig{
		Host: appCfg.MailSMTPHost,
		Port: appCfg.MailSMTPPort,
		User: appCfg.MailSMTPUser,
		Pass: appCfg.MailSMTPPass,
		From: appCfg.MailFrom,
	}, logger)

	verifier := verification.New(verification.Deps{
		Mentees:  rt.Mentees,
		Clans:    rt.Clans,
		Requests: rt.Requests,
		Config:   rt.Config,
		Platform: adapter,
		Mail:     mail,
		Guard:    newGuard(deps.Redis, logger),
		Metrics:  rt.Metrics,
		Logger:   logger,
		CodeTTL:  appCfg.OTPExpiry,
	})
	rooms := voicerooms.New(rt.Clans, rt.Config, adapter, adapter, rt.Metrics, logger)

	router := discord.NewRouter(appCfg.DiscordGuildID, verifier, rooms, logger)
	rt.unregister = router.Register(s)

	if err := s.Open(); err != nil {
		rt.unregister()
		return fmt.Errorf("discord gateway open: %w", err)
	}
	rt.session = s
	logger.Info("discord gateway open", zap.String("guild_id", appCfg.DiscordGuildID))
	return nil
}
