// internal/app/features/dashboard/handler.go
package dashboard

import (
	"time"

	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Clans    *clanstore.Store
	Requests *requeststore.Store
	Loc      *time.Location // where "today" starts
	Log      *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		DB:       db,
		Clans:    clanstore.New(db),
		Requests: requeststore.New(db),
		Loc:      loc,
		Log:      logger,
		now:      time.Now,
	}
}
