// internal/app/features/settings/config.go
package settings

import (
	"net/http"

	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	configstore "github.com/devweekends/clanverify/internal/app/store/botconfig"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
)

// ServeConfig handles GET /api/config.
func (h *Handler) ServeConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load config")
	defer cancel()

	cfg, err := h.Config.Get(ctx)
	if err != nil {
		respond.Error(w, h.Log, "load config", err)
		return
	}
	respond.OK(w, cfg)
}

type embedBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Color       *int    `json:"color"`
}

type buttonBody struct {
	Label *string `json:"label"`
	Emoji *string `json:"emoji"`
}

// updateRequest mirrors the BotConfig JSON. Absent fields are left alone.
type updateRequest struct {
	RequestChannelID      *string `json:"request_channel_id"`
	LogChannelID          *string `json:"log_channel_id"`
	TempVoiceCategoryID   *string `json:"temp_voice_category_id"`
	JoinToCreateChannelID *string `json:"join_to_create_channel_id"`
	MainRoleID            *string `json:"main_role_id"`

	Embed  *embedBody  `json:"embed"`
	Button *buttonBody `json:"button"`

	EmailFromName *string `json:"email_from_name"`
	EmailSubject  *string `json:"email_subject"`
	EmailTemplate *string `json:"email_template"`
}

func (b updateRequest) update() configstore.Update {
	u := configstore.Update{
		RequestChannelID:      b.RequestChannelID,
		LogChannelID:          b.LogChannelID,
		TempVoiceCategoryID:   b.TempVoiceCategoryID,
		JoinToCreateChannelID: b.JoinToCreateChannelID,
		MainRoleID:            b.MainRoleID,
		EmailFromName:         b.EmailFromName,
		EmailSubject:          b.EmailSubject,
		EmailTemplate:         b.EmailTemplate,
	}
	if b.Embed != nil {
		u.EmbedTitle = b.Embed.Title
		u.EmbedDescription = b.Embed.Description
		u.EmbedColor = b.Embed.Color
	}
	if b.Button != nil {
		u.ButtonLabel = b.Button.Label
		u.ButtonEmoji = b.Button.Emoji
	}
	return u
}

// HandleUpdate handles PUT /api/config.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "update config", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update config")
	defer cancel()

	cfg, err := h.Admin.UpdateConfig(ctx, adminauth.Actor(r), body.update())
	if err != nil {
		respond.Error(w, h.Log, "update config", err)
		return
	}
	respond.OK(w, cfg)
}

type deployResponse struct {
	MessageID string `json:"message_id"`
}

// HandleDeploy handles POST /api/config/deploy-message.
func (h *Handler) HandleDeploy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "deploy verification message")
	defer cancel()

	id, err := h.Admin.DeployMessage(ctx, adminauth.Actor(r))
	if err != nil {
		respond.Error(w, h.Log, "deploy verification message", err)
		return
	}
	respond.OK(w, deployResponse{MessageID: id})
}

// HandleSyncRoles handles POST /api/config/sync-roles. It walks the whole
// guild, so it gets the batch timeout.
func (h *Handler) HandleSyncRoles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "sync roles")
	defer cancel()

	res, err := h.Admin.SyncRoles(ctx, adminauth.Actor(r))
	if err != nil {
		respond.Error(w, h.Log, "sync roles", err)
		return
	}
	respond.OK(w, res)
}
