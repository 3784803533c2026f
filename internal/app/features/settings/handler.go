// internal/app/features/settings/handler.go
package settings

import (
	"github.com/devweekends/clanverify/internal/app/admin"
	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	"go.uber.org/zap"
)

// Handler owns the bot configuration endpoints.
type Handler struct {
	Config *configstore.Store
	Admin  *admin.Service
	Log    *zap.Logger
}

// NewHandler constructs a Handler bound to the config store and admin service.
func NewHandler(cfg *configstore.Store, svc *admin.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Config: cfg,
		Admin:  svc,
		Log:    logger,
	}
}
