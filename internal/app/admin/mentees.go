// internal/app/admin/mentees.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devweekends/clanverify/internal/app/importer"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/clanmatch"
	"github.com/devweekends/clanverify/internal/app/system/inputval"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MenteeInput is a manually added mentee.
type MenteeInput struct {
	FullName     string
	Email        string
	AssignedClan string
}

func (in MenteeInput) validate() error {
	switch {
	case strings.TrimSpace(in.FullName) == "":
		return apperr.Validation("Name is required.")
	case !inputval.IsValidEmail(in.Email):
		return apperr.Validation("A valid email is required.")
	case strings.TrimSpace(in.AssignedClan) == "":
		return apperr.Validation("Assigned clan is required.")
	}
	return nil
}

func (s *Service) CreateMentee(ctx context.Context, actor auditlog.Actor, in MenteeInput) (models.Mentee, error) {
	if err := in.validate(); err != nil {
		return models.Mentee{}, err
	}
	m, err := s.Mentees.Create(ctx, models.Mentee{
		FullName:     in.FullName,
		Email:        in.Email,
		AssignedClan: in.AssignedClan,
	})
	if err != nil {
		return models.Mentee{}, storeErr(err)
	}
	s.Audit.MenteeCreated(ctx, actor, m.ID.Hex(), m.Email)
	return m, nil
}

// UpdateMentee edits name, email or clan label. The clan slug follows the
// label.
func (s *Service) UpdateMentee(ctx context.Context, actor auditlog.Actor, id primitive.ObjectID, u menteestore.Update) (models.Mentee, error) {
	if u.Email != nil && !inputval.IsValidEmail(*u.Email) {
		return models.Mentee{}, apperr.Validation("A valid email is required.")
	}
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return models.Mentee{}, apperr.Validation("Name is required.")
	}
	if u.AssignedClan != nil && strings.TrimSpace(*u.AssignedClan) == "" {
		return models.Mentee{}, apperr.Validation("Assigned clan is required.")
	}
	if u.Status != nil && !u.Status.Valid() {
		return models.Mentee{}, apperr.Validation("Unknown status.")
	}
	m, err := s.Mentees.Update(ctx, id, u)
	if err != nil {
		return models.Mentee{}, storeErr(err)
	}
	s.Audit.MenteeUpdated(ctx, actor, m.ID.Hex(), m.Email)
	return m, nil
}

// DeleteMentee removes a mentee and its verification requests.
func (s *Service) DeleteMentee(ctx context.Context, actor auditlog.Actor, id primitive.ObjectID) error {
	m, err := s.Mentees.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	if _, err := s.Mentees.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.Requests.DeleteByMentee(ctx, id); err != nil {
		s.Log.Warn("delete requests of deleted mentee", zap.String("mentee_id", id.Hex()), zap.Error(err))
	}
	s.Audit.MenteeDeleted(ctx, actor, m.ID.Hex(), m.Email)
	return nil
}

// BulkDeleteMentees removes the given mentees and their requests.
func (s *Service) BulkDeleteMentees(ctx context.Context, actor auditlog.Actor, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("No mentees selected.")
	}
	n, err := s.Mentees.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	if _, err := s.Requests.DeleteByMentees(ctx, ids); err != nil {
		s.Log.Warn("delete requests of deleted mentees", zap.Int("mentees", len(ids)), zap.Error(err))
	}
	s.Audit.MenteesBulkDeleted(ctx, actor, n)
	return n, nil
}

// ClearMentees removes every mentee and every verification request.
func (s *Service) ClearMentees(ctx context.Context, actor auditlog.Actor) (int64, error) {
	n, err := s.Mentees.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := s.Requests.DeleteAll(ctx); err != nil {
		return n, fmt.Errorf("clear verification requests: %w", err)
	}
	s.Audit.MenteesCleared(ctx, actor, n)
	return n, nil
}

// UnlinkResult reports an unlink.
type UnlinkResult struct {
	Mentee      models.Mentee `json:"mentee"`
	RoleRemoved bool          `json:"role_removed"`
}

// UnlinkMentee detaches the Discord account from a mentee so it can be
// verified again. The clan role is removed from the account first when it
// can be determined; that removal is best-effort.
func (s *Service) UnlinkMentee(ctx context.Context, actor auditlog.Actor, id primitive.ObjectID) (UnlinkResult, error) {
	var res UnlinkResult
	m, err := s.Mentees.GetByID(ctx, id)
	if err != nil {
		return res, storeErr(err)
	}

	if m.DiscordID != "" && s.Platform != nil {
		res.RoleRemoved = s.removeClanRole(ctx, m)
	}

	before, err := s.Mentees.Unlink(ctx, id)
	if err != nil {
		return res, storeErr(err)
	}
	if _, err := s.Requests.DeleteByMentee(ctx, id); err != nil {
		return res, fmt.Errorf("delete requests of unlinked mentee: %w", err)
	}
	if res.Mentee, err = s.Mentees.GetByID(ctx, id); err != nil {
		return res, storeErr(err)
	}
	s.Audit.MenteeUnlinked(ctx, actor, m.ID.Hex(), m.Email, before.DiscordID)
	return res, nil
}

func (s *Service) removeClanRole(ctx context.Context, m models.Mentee) bool {
	clans, err := s.Clans.List(ctx)
	if err != nil {
		s.Log.Warn("list clans for unlink", zap.Error(err))
		return false
	}
	clan, ok := clanmatch.Resolve(m.AssignedClan, clans)
	if !ok || clan.RoleID == "" {
		return false
	}
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), s.Log, "remove clan role on unlink")
	defer cancel()
	if err := s.Platform.RemoveRole(pctx, m.DiscordID, clan.RoleID, "Mentee unlinked by admin"); err != nil {
		s.Log.Warn("remove clan role on unlink",
			zap.String("discord_id", m.DiscordID),
			zap.String("role_id", clan.RoleID),
			zap.Error(err))
		return false
	}
	return true
}

// ImportMentees loads a CSV roll.
func (s *Service) ImportMentees(ctx context.Context, actor auditlog.Actor, filename string, r io.Reader) (importer.Result, error) {
	res, err := s.Importer.Import(ctx, r)
	if err != nil {
		if errors.Is(err, importer.ErrNoValidRecords) {
			s.Audit.CSVUpload(ctx, actor, filename, 0, res.Skipped)
		}
		return res, err
	}
	s.Audit.CSVUpload(ctx, actor, filename, res.Imported, res.Skipped)
	return res, nil
}
