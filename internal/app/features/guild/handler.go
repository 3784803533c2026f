// internal/app/features/guild/handler.go
package guild

import (
	"github.com/devweekends/clanverify/internal/app/platform"
	"go.uber.org/zap"
)

// Handler serves read-only lookups of the guild's roles and channels, used
// by the admin UI to fill its pickers.
type Handler struct {
	Platform platform.Platform // nil when Discord is not connected
	Log      *zap.Logger
}

func NewHandler(p platform.Platform, logger *zap.Logger) *Handler {
	return &Handler{Platform: p, Log: logger}
}
