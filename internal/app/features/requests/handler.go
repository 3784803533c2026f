// internal/app/features/requests/handler.go
package requests

import (
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"go.uber.org/zap"
)

// Handler serves the verification request history.
type Handler struct {
	Requests *requeststore.Store
	Clans    *clanstore.Store
	Log      *zap.Logger
}

func NewHandler(requests *requeststore.Store, clans *clanstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Requests: requests,
		Clans:    clans,
		Log:      logger,
	}
}
