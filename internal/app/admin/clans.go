// internal/app/admin/clans.go
package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/devweekends/clanverify/internal/app/platform"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ClanInput is a new clan. Enabled defaults to true.
type ClanInput struct {
	Name    string
	RoleID  string
	Enabled *bool
}

func (s *Service) CreateClan(ctx context.Context, actor auditlog.Actor, in ClanInput) (models.Clan, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Clan{}, apperr.Validation("Clan name is required.")
	}
	if strings.TrimSpace(in.RoleID) == "" {
		return models.Clan{}, apperr.Validation("Role ID is required.")
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	c, err := s.Clans.Create(ctx, models.Clan{
		Name:    in.Name,
		RoleID:  strings.TrimSpace(in.RoleID),
		Enabled: enabled,
	})
	if err != nil {
		return models.Clan{}, storeErr(err)
	}
	s.Audit.ClanCreated(ctx, actor, c.ID.Hex(), c.Name)
	return c, nil
}

// UpdateClan applies u. A rename moves every mentee labelled with the old
// name to the new one.
func (s *Service) UpdateClan(ctx context.Context, actor auditlog.Actor, id primitive.ObjectID, u clanstore.Update) (models.Clan, error) {
	if u.RoleID != nil && strings.TrimSpace(*u.RoleID) == "" {
		return models.Clan{}, apperr.Validation("Role ID is required.")
	}
	before, after, err := s.Clans.Update(ctx, id, u)
	if err != nil {
		return models.Clan{}, storeErr(err)
	}

	var relabeled int64
	if before.Name != after.Name {
		relabeled, err = s.Mentees.RelabelClan(ctx, before.Name, after.Name)
		if err != nil {
			return after, err
		}
	}
	s.Audit.ClanUpdated(ctx, actor, after.ID.Hex(), after.Name, relabeled)
	return after, nil
}

// DeleteClan removes a clan and, when deleteRole is set, its Discord role.
// The role deletion is best-effort.
func (s *Service) DeleteClan(ctx context.Context, actor auditlog.Actor, id primitive.ObjectID, deleteRole bool) error {
	c, err := s.Clans.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	roleDeleted := false
	if deleteRole && c.RoleID != "" {
		roleDeleted = s.deleteRole(ctx, c)
	}
	if _, err := s.Clans.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.ClanDeleted(ctx, actor, c.ID.Hex(), c.Name, roleDeleted)
	return nil
}

func (s *Service) deleteRole(ctx context.Context, c models.Clan) bool {
	if s.Platform == nil {
		return false
	}
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), s.Log, "delete clan role")
	defer cancel()
	err := s.Platform.DeleteRole(pctx, c.RoleID)
	if err != nil && !errors.Is(err, platform.ErrUnknownRole) {
		s.Log.Warn("delete clan role", zap.String("clan", c.Name), zap.String("role_id", c.RoleID), zap.Error(err))
		return false
	}
	return err == nil
}

// MergeResult reports what MergeClans moved.
type MergeResult struct {
	Target        models.Clan `json:"target"`
	MenteesMoved  int64       `json:"mentees_moved"`
	RequestsMoved int64       `json:"requests_moved"`
	RolesGranted  int         `json:"roles_granted"`
	RoleDeleted   bool        `json:"role_deleted"`
}

// MergeClans folds source into target: mentees and requests move over,
// verified members of the source get the target role, and the source clan
// and its role are removed.
func (s *Service) MergeClans(ctx context.Context, actor auditlog.Actor, sourceID, targetID primitive.ObjectID) (MergeResult, error) {
	if sourceID == targetID {
		return MergeResult{}, apperr.Validation("Cannot merge a clan into itself.")
	}
	source, err := s.Clans.GetByID(ctx, sourceID)
	if err != nil {
		return MergeResult{}, apperr.Wrap(apperr.KindNotFound, "Source clan not found.", err)
	}
	target, err := s.Clans.GetByID(ctx, targetID)
	if err != nil {
		return MergeResult{}, apperr.Wrap(apperr.KindNotFound, "Target clan not found.", err)
	}
	res := MergeResult{Target: target}

	members, err := s.Mentees.ListByClanLabel(ctx, source.Name)
	if err != nil {
		return res, err
	}
	// Mentees, requests and the clan row move together; Discord follows.
	err = s.inTxn(ctx, func(ctx context.Context) error {
		var err error
		if res.MenteesMoved, err = s.Mentees.RelabelClan(ctx, source.Name, target.Name); err != nil {
			return err
		}
		if res.RequestsMoved, err = s.Requests.ReassignClan(ctx, source.ID, target.ID, target.RoleID); err != nil {
			return err
		}
		_, err = s.Clans.Delete(ctx, source.ID)
		return err
	})
	if err != nil {
		return MergeResult{Target: target}, err
	}

	if s.Platform != nil && target.RoleID != "" {
		for _, m := range members {
			if m.Status != models.MenteeVerified || m.DiscordID == "" {
				continue
			}
			pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), s.Log, "grant merged clan role")
			err := s.Platform.AddRole(pctx, m.DiscordID, target.RoleID, "Clan merged into "+target.Name)
			cancel()
			if err != nil {
				s.Log.Warn("grant target role after merge",
					zap.String("discord_id", m.DiscordID),
					zap.String("target", target.Name),
					zap.Error(err))
				continue
			}
			res.RolesGranted++
		}
	}
	if source.RoleID != "" && source.RoleID != target.RoleID {
		res.RoleDeleted = s.deleteRole(ctx, source)
	}

	s.Audit.ClanMerged(ctx, actor, source.ID.Hex(), source.Name, target.ID.Hex(), target.Name, res.MenteesMoved, res.RequestsMoved)
	s.Log.Info("clans merged",
		zap.String("source", source.Name),
		zap.String("target", target.Name),
		zap.Int64("mentees", res.MenteesMoved),
		zap.Int64("requests", res.RequestsMoved),
		zap.Int("roles_granted", res.RolesGranted))
	return res, nil
}
