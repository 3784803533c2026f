// internal/app/reconcile/reconciler.go
// Package reconcile repairs drift between the mentee ledger and the
// guild: verified mentees who lost their clan role get it back, the main
// aggregate role follows clan membership, and stale terminal verification
// requests are purged.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/system/metrics"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.uber.org/zap"
)

// Retention is how long terminal requests are kept after their last update.
const Retention = 24 * time.Hour

type ClanStore interface {
	ListEnabled(ctx context.Context) ([]models.Clan, error)
}

type MenteeStore interface {
	ListVerifiedBySlug(ctx context.Context, clanSlug string) ([]models.Mentee, error)
}

type RequestStore interface {
	PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ConfigStore interface {
	Get(ctx context.Context) (models.BotConfig, error)
}

// Directory is the member surface the reconciler needs.
type Directory interface {
	Member(ctx context.Context, userID string) (platform.Member, error)
	Members(ctx context.Context) ([]platform.Member, error)
	AddRole(ctx context.Context, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, userID, roleID, reason string) error
}

// RoleResult counts one role restoration pass.
type RoleResult struct {
	Checked  int `json:"checked"`
	Restored int `json:"restored"`
	Failed   int `json:"failed"`
}

// MainRoleResult counts one main-role sync.
type MainRoleResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// Result is the outcome of RunFull.
type Result struct {
	Roles  RoleResult `json:"roles"`
	Purged int64      `json:"purged"`
}

// Reconciler runs the drift repairs.
type Reconciler struct {
	Clans     ClanStore
	Mentees   MenteeStore
	Requests  RequestStore
	Config    ConfigStore
	Directory Directory
	Metrics   *metrics.Metrics
	Log       *zap.Logger

	// Now is replaceable in tests.
	Now func() time.Time
}

func New(clans ClanStore, mentees MenteeStore, requests RequestStore, cfg ConfigStore, dir Directory, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		Clans:     clans,
		Mentees:   mentees,
		Requests:  requests,
		Config:    cfg,
		Directory: dir,
		Metrics:   m,
		Log:       logger,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunFull restores roles and purges stale requests. The two duties are
// independent; a failure in one does not skip the other.
func (r *Reconciler) RunFull(ctx context.Context) (Result, error) {
	var res Result
	roles, rolesErr := r.RestoreRoles(ctx)
	res.Roles = roles
	purged, purgeErr := r.PurgeTerminal(ctx)
	res.Purged = purged
	return res, errors.Join(rolesErr, purgeErr)
}

// RestoreRoles grants each enabled clan's role to every verified mentee of
// that clan who no longer holds it. Per-mentee failures, such as a member
// who left the guild, are counted and skipped.
func (r *Reconciler) RestoreRoles(ctx context.Context) (RoleResult, error) {
	var res RoleResult
	clans, err := r.Clans.ListEnabled(ctx)
	if err != nil {
		return res, fmt.Errorf("list enabled clans: %w", err)
	}

	for _, clan := range clans {
		if clan.RoleID == "" {
			continue
		}
		mentees, err := r.Mentees.ListVerifiedBySlug(ctx, clan.Slug)
		if err != nil {
			r.Log.Warn("list verified mentees", zap.String("clan", clan.Name), zap.Error(err))
			continue
		}
		for _, m := range mentees {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if m.DiscordID == "" {
				continue
			}
			res.Checked++
			restored, err := r.ensureRole(ctx, m.DiscordID, clan.RoleID, "Clan role restoration")
			switch {
			case err != nil:
				res.Failed++
				r.Log.Warn("restore clan role",
					zap.String("mentee_id", m.ID.Hex()),
					zap.String("discord_id", m.DiscordID),
					zap.String("clan", clan.Name),
					zap.Error(err))
			case restored:
				res.Restored++
				r.Log.Info("restored clan role",
					zap.String("discord_id", m.DiscordID),
					zap.String("clan", clan.Name))
			}
		}
	}

	r.Metrics.RoleRestore("restored", res.Restored)
	r.Metrics.RoleRestore("failed", res.Failed)
	r.Metrics.RoleRestore("ok", res.Checked-res.Restored-res.Failed)
	return res, nil
}

// ensureRole adds roleID to userID unless they already hold it.
func (r *Reconciler) ensureRole(ctx context.Context, userID, roleID, reason string) (bool, error) {
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), r.Log, "restore clan role")
	defer cancel()

	member, err := r.Directory.Member(pctx, userID)
	if err != nil {
		return false, err
	}
	if member.HasRole(roleID) {
		return false, nil
	}
	if err := r.Directory.AddRole(pctx, userID, roleID, reason); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeTerminal deletes verified, failed and expired requests that have
// not changed for Retention.
func (r *Reconciler) PurgeTerminal(ctx context.Context) (int64, error) {
	cutoff := r.Now().Add(-Retention)
	n, err := r.Requests.PurgeTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge terminal requests: %w", err)
	}
	r.Metrics.Purged(n)
	if n > 0 {
		r.Log.Info("purged terminal verification requests", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// SyncMainRole makes the configured main role track clan membership:
// members holding any enabled clan role gain it, members holding none lose
// it. Bots are left alone. It is a no-op when no main role is configured.
func (r *Reconciler) SyncMainRole(ctx context.Context) (MainRoleResult, error) {
	var res MainRoleResult
	cfg, err := r.Config.Get(ctx)
	if err != nil {
		return res, fmt.Errorf("load bot config: %w", err)
	}
	if cfg.MainRoleID == "" {
		return res, nil
	}

	clans, err := r.Clans.ListEnabled(ctx)
	if err != nil {
		return res, fmt.Errorf("list enabled clans: %w", err)
	}
	clanRoles := make(map[string]bool, len(clans))
	for _, c := range clans {
		if c.RoleID != "" {
			clanRoles[c.RoleID] = true
		}
	}

	lctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), r.Log, "list guild members")
	members, err := r.Directory.Members(lctx)
	cancel()
	if err != nil {
		return res, fmt.Errorf("list guild members: %w", err)
	}

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if m.Bot {
			continue
		}
		inClan := false
		for _, role := range m.Roles {
			if clanRoles[role] {
				inClan = true
				break
			}
		}
		hasMain := m.HasRole(cfg.MainRoleID)

		pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), r.Log, "sync main role")
		switch {
		case inClan && !hasMain:
			if err := r.Directory.AddRole(pctx, m.UserID, cfg.MainRoleID, "Member of a verified clan"); err != nil {
				res.Failed++
				r.Log.Warn("add main role", zap.String("discord_id", m.UserID), zap.Error(err))
			} else {
				res.Added++
			}
		case !inClan && hasMain:
			if err := r.Directory.RemoveRole(pctx, m.UserID, cfg.MainRoleID, "No verified clan role"); err != nil {
				res.Failed++
				r.Log.Warn("remove main role", zap.String("discord_id", m.UserID), zap.Error(err))
			} else {
				res.Removed++
			}
		}
		cancel()
	}

	r.Log.Info("main role synced",
		zap.Int("added", res.Added),
		zap.Int("removed", res.Removed),
		zap.Int("failed", res.Failed))
	return res, nil
}
