// internal/app/admin/admin.go
// Package admin implements the mutations behind the admin API: clan and
// mentee maintenance, roll imports, bot configuration and the manual role
// sync. Every mutation is written to the activity log.
package admin

import (
	"context"
	"errors"

	"github.com/devweekends/clanverify/internal/app/importer"
	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/reconcile"
	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service holds the stores and collaborators admin mutations touch.
type Service struct {
	// DB, when set, lets multi-collection writes share a transaction.
	DB         *mongo.Database
	Clans      *clanstore.Store
	Mentees    *menteestore.Store
	Requests   *requeststore.Store
	Config     *configstore.Store
	Platform   platform.Platform
	Importer   *importer.Reconciler
	Reconciler *reconcile.Reconciler
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

// New returns s ready for use.
func New(s Service) *Service {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	return &s
}

// inTxn runs fn in a transaction when the service has a database handle.
func (s *Service) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.DB == nil {
		return fn(ctx)
	}
	return txn.Run(ctx, s.DB, s.Log, fn)
}

// storeErr maps store sentinels onto the error taxonomy.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, clanstore.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Clan not found.", err)
	case errors.Is(err, clanstore.ErrDuplicateSlug):
		return apperr.Wrap(apperr.KindConflict, "A clan with this name already exists.", err)
	case errors.Is(err, clanstore.ErrEmptyName):
		return apperr.Wrap(apperr.KindValidation, "Clan name is required.", err)
	case errors.Is(err, menteestore.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Mentee not found.", err)
	case errors.Is(err, menteestore.ErrDuplicateEmail):
		return apperr.Wrap(apperr.KindConflict, "A mentee with this email already exists.", err)
	case errors.Is(err, menteestore.ErrDiscordTaken):
		return apperr.Wrap(apperr.KindConflict, "This Discord account is already verified with another mentee.", err)
	}
	return err
}
