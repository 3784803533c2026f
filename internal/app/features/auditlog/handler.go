// internal/app/features/auditlog/handler.go
package auditlog

import (
	activitystore "github.com/devweekends/clanverify/internal/app/store/activity"
	"go.uber.org/zap"
)

type Handler struct {
	Activity *activitystore.Store
	Log      *zap.Logger
}

// NewHandler constructs an activity log feature handler bound to the
// activity store and logger.
func NewHandler(store *activitystore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Activity: store,
		Log:      logger,
	}
}
