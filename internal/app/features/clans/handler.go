// internal/app/features/clans/handler.go
package clans

import (
	"github.com/devweekends/clanverify/internal/app/admin"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	"go.uber.org/zap"
)

// Handler serves the clan catalog endpoints.
type Handler struct {
	Clans *clanstore.Store
	Admin *admin.Service
	Log   *zap.Logger
}

func NewHandler(clans *clanstore.Store, svc *admin.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Clans: clans,
		Admin: svc,
		Log:   logger,
	}
}
