// internal/testutil/services.go
package testutil

import (
	"testing"

	"github.com/devweekends/clanverify/internal/app/admin"
	"github.com/devweekends/clanverify/internal/app/importer"
	"github.com/devweekends/clanverify/internal/app/platform/platformtest"
	"github.com/devweekends/clanverify/internal/app/reconcile"
	activitystore "github.com/devweekends/clanverify/internal/app/store/activity"
	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Services bundles the stores and admin service of a test database, wired
// to an in-memory platform.
type Services struct {
	DB       *mongo.Database
	Clans    *clanstore.Store
	Mentees  *menteestore.Store
	Requests *requeststore.Store
	Config   *configstore.Store
	Activity *activitystore.Store
	Platform *platformtest.Fake
	Admin    *admin.Service
	Fixtures *Fixtures
}

// NewServices sets up a test database and wires every store to it.
// The test is skipped when MongoDB is unavailable.
func NewServices(t *testing.T) *Services {
	t.Helper()
	db := SetupTestDB(t)
	s := &Services{
		DB:       db,
		Clans:    clanstore.New(db),
		Mentees:  menteestore.New(db),
		Requests: requeststore.New(db),
		Config:   configstore.New(db),
		Activity: activitystore.New(db),
		Platform: platformtest.New(),
		Fixtures: NewFixtures(t, db),
	}
	s.Admin = admin.New(admin.Service{
		DB:         db,
		Clans:      s.Clans,
		Mentees:    s.Mentees,
		Requests:   s.Requests,
		Config:     s.Config,
		Platform:   s.Platform,
		Importer:   importer.New(s.Clans, s.Mentees, nil, nil),
		Reconciler: reconcile.New(s.Clans, s.Mentees, s.Requests, s.Config, s.Platform, nil, nil),
		Audit:      auditlog.New(s.Activity, zap.NewNop(), auditlog.Config{}),
	})
	return s
}
