// internal/app/features/mentees/handler.go
package mentees

import (
	"github.com/devweekends/clanverify/internal/app/admin"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"go.uber.org/zap"
)

// Handler serves the mentee roll endpoints.
type Handler struct {
	Mentees *menteestore.Store
	Admin   *admin.Service
	Log     *zap.Logger
}

func NewHandler(mentees *menteestore.Store, svc *admin.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Mentees: mentees,
		Admin:   svc,
		Log:     logger,
	}
}
