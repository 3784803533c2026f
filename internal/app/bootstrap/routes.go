// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	auditlogfeature "github.com/devweekends/clanverify/internal/app/features/auditlog"
	clansfeature "github.com/devweekends/clanverify/internal/app/features/clans"
	dashboardfeature "github.com/devweekends/clanverify/internal/app/features/dashboard"
	guildfeature "github.com/devweekends/clanverify/internal/app/features/guild"
	healthfeature "github.com/devweekends/clanverify/internal/app/features/health"
	menteesfeature "github.com/devweekends/clanverify/internal/app/features/mentees"
	requestsfeature "github.com/devweekends/clanverify/internal/app/features/requests"
	settingsfeature "github.com/devweekends/clanverify/internal/app/features/settings"
	"github.com/devweekends/clanverify/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. /health and /metrics are open; everything under
// /api is rate limited per client IP and requires the admin API key.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.App
	if rt == nil || rt.Admin == nil {
		return nil, errors.New("build handler: startup did not run")
	}

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	var gateway func() bool
	if rt.session != nil {
		gateway = rt.GatewayUp
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, gateway, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", rt.Metrics.Handler())

	auth := adminauth.New(appCfg.AdminAPIKeyHash, rt.authLimiter, logger)
	if appCfg.AdminAPIKeyHash == "" {
		logger.Warn("admin_api_key_hash not set; the admin API will reject every request")
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(ratelimit.Middleware(rt.limiter, logger))
		api.Use(auth.Require)

		clansHandler := clansfeature.NewHandler(rt.Clans, rt.Admin, logger)
		api.Mount("/clans", clansfeature.Routes(clansHandler))

		menteesHandler := menteesfeature.NewHandler(rt.Mentees, rt.Admin, logger)
		api.Mount("/mentees", menteesfeature.Routes(menteesHandler))

		requestsHandler := requestsfeature.NewHandler(rt.Requests, rt.Clans, logger)
		api.Mount("/requests", requestsfeature.Routes(requestsHandler))

		settingsHandler := settingsfeature.NewHandler(rt.Config, rt.Admin, logger)
		api.Mount("/config", settingsfeature.Routes(settingsHandler))

		statsHandler := dashboardfeature.NewHandler(deps.MongoDatabase, appCfg.Location(), logger)
		api.Mount("/stats", dashboardfeature.Routes(statsHandler))

		activityHandler := auditlogfeature.NewHandler(rt.Activity, logger)
		api.Mount("/activity", auditlogfeature.Routes(activityHandler))

		guildHandler := guildfeature.NewHandler(rt.Platform, logger)
		api.Mount("/discord", guildfeature.Routes(guildHandler))
	})

	return r, nil
}
