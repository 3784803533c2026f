// internal/app/admin/config.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/reconcile"
	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/htmlsanitize"
	"github.com/devweekends/clanverify/internal/app/system/inputval"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.uber.org/zap"
)

// UpdateConfig validates and stores admin edits to the bot configuration.
// Channel and role ids must be Discord ids or empty. The email template is
// sanitised before it is stored.
func (s *Service) UpdateConfig(ctx context.Context, actor auditlog.Actor, u configstore.Update) (models.BotConfig, error) {
	ids := []struct {
		label string
		v     *string
	}{
		{"Request channel", u.RequestChannelID},
		{"Log channel", u.LogChannelID},
		{"Voice category", u.TempVoiceCategoryID},
		{"Join-to-create channel", u.JoinToCreateChannelID},
		{"Main role", u.MainRoleID},
	}
	for _, id := range ids {
		if id.v == nil {
			continue
		}
		*id.v = strings.TrimSpace(*id.v)
		if *id.v != "" && !inputval.IsSnowflake(*id.v) {
			return models.BotConfig{}, apperr.Validation(id.label + " must be a Discord ID.")
		}
	}
	if u.EmbedColor != nil && (*u.EmbedColor < 0 || *u.EmbedColor > 0xFFFFFF) {
		return models.BotConfig{}, apperr.Validation("Embed color must be between 0x000000 and 0xFFFFFF.")
	}
	if u.EmailTemplate != nil {
		clean := htmlsanitize.EmailTemplate(*u.EmailTemplate)
		if !strings.Contains(clean, "{{code}}") {
			return models.BotConfig{}, apperr.Validation("Email template must contain {{code}}.")
		}
		u.EmailTemplate = &clean
	}
	if u.EmailSubject != nil {
		subject := htmlsanitize.Text(*u.EmailSubject)
		u.EmailSubject = &subject
	}

	cfg, err := s.Config.Update(ctx, u)
	if err != nil {
		return models.BotConfig{}, err
	}
	s.Audit.ConfigUpdated(ctx, actor)
	return cfg, nil
}

// DeployMessage posts the verification panel to the request channel,
// replacing the previously deployed one, and returns the new message id.
func (s *Service) DeployMessage(ctx context.Context, actor auditlog.Actor) (string, error) {
	cfg, err := s.Config.Get(ctx)
	if err != nil {
		return "", err
	}
	if cfg.RequestChannelID == "" {
		return "", apperr.Validation("Request channel is not configured.")
	}
	if s.Platform == nil {
		return "", apperr.External("Discord is not connected.", nil)
	}

	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), s.Log, "deploy verification panel")
	defer cancel()

	if cfg.RequestMessageID != "" {
		err := s.Platform.DeleteMessage(pctx, cfg.RequestChannelID, cfg.RequestMessageID)
		if err != nil && !errors.Is(err, platform.ErrUnknownMessage) {
			s.Log.Warn("delete previous verification panel",
				zap.String("message_id", cfg.RequestMessageID),
				zap.Error(err))
		}
	}

	msgID, err := s.Platform.SendPanel(pctx, cfg.RequestChannelID,
		platform.Embed{
			Title:       cfg.Embed.Title,
			Description: cfg.Embed.Description,
			Color:       cfg.Embed.Color,
		},
		platform.Button{
			CustomID: platform.RequestButtonID,
			Label:    cfg.Button.Label,
			Emoji:    cfg.Button.Emoji,
		})
	if err != nil {
		return "", apperr.External("Could not post the verification message.", err)
	}
	if err := s.Config.SetRequestMessage(ctx, msgID); err != nil {
		return msgID, fmt.Errorf("save request message id: %w", err)
	}
	s.Audit.MessageDeployed(ctx, actor, cfg.RequestChannelID, msgID)
	return msgID, nil
}

// SyncResult is the outcome of SyncRoles.
type SyncResult struct {
	MainRole reconcile.MainRoleResult `json:"main_role"`
	Roles    reconcile.RoleResult     `json:"roles"`
}

// SyncRoles runs the main-role sync and the clan role restoration on demand.
func (s *Service) SyncRoles(ctx context.Context, actor auditlog.Actor) (SyncResult, error) {
	var res SyncResult
	if s.Reconciler == nil {
		return res, apperr.External("Discord is not connected.", nil)
	}
	var err error
	if res.MainRole, err = s.Reconciler.SyncMainRole(ctx); err != nil {
		return res, apperr.External("Main role sync failed.", err)
	}
	if res.Roles, err = s.Reconciler.RestoreRoles(ctx); err != nil {
		return res, apperr.External("Clan role restoration failed.", err)
	}
	s.Audit.RolesSynced(ctx, actor, res.MainRole.Added, res.MainRole.Removed, res.Roles.Restored)
	return res, nil
}
