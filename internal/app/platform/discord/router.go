// internal/app/platform/discord/router.go
package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/app/verification"
	"github.com/devweekends/clanverify/internal/app/voicerooms"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.uber.org/zap"
)

// Custom ids of the interactive components.
const (
	EmailModalID     = "email_modal"
	EmailInputID     = "email_input"
	EnterCodeButton  = "enter_otp_button"
	CancelButton     = "cancel_verification"
	CodeModalID      = "otp_modal"
	CodeInputID      = "otp_input"
	ClanSelectPrefix = "cls_"
)

const genericFailure = "Something went wrong. Please try again or contact an administrator."

// Verifier is the verification workflow driven by the panel button.
type Verifier interface {
	Issue(ctx context.Context, in verification.IssueInput) (verification.IssueResult, error)
	SubmitCode(ctx context.Context, discordID, code string) (verification.SubmitResult, error)
	Cancel(ctx context.Context, discordID string) (bool, error)
	Pending(ctx context.Context, discordID string) (models.VerificationRequest, bool, error)
	AlreadyVerified(ctx context.Context, discordID string) (models.Mentee, bool, error)
}

// RoomHandler receives voice presence changes and clan choices.
type RoomHandler interface {
	HandleVoiceState(ctx context.Context, ev voicerooms.VoiceStateChange) error
	ChooseClan(ctx context.Context, userID, clanID string) (voicerooms.Room, error)
}

// Responder answers interactions. *discordgo.Session satisfies it.
type Responder interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Router dispatches gateway events for one guild.
type Router struct {
	GuildID  string
	Verifier Verifier
	Rooms    RoomHandler
	Log      *zap.Logger
}

func NewRouter(guildID string, v Verifier, rooms RoomHandler, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{GuildID: guildID, Verifier: v, Rooms: rooms, Log: logger}
}

// Register subscribes the router to s. The returned func removes the
// handlers again.
func (r *Router) Register(s *discordgo.Session) func() {
	offInteraction := s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		r.HandleInteraction(context.Background(), s, ic.Interaction)
	})
	offVoice := s.AddHandler(func(_ *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		r.HandleVoiceState(context.Background(), vs)
	})
	return func() {
		offInteraction()
		offVoice()
	}
}

// HandleVoiceState forwards a presence change in the router's guild to
// the room manager.
func (r *Router) HandleVoiceState(ctx context.Context, vs *discordgo.VoiceStateUpdate) {
	if vs == nil || vs.VoiceState == nil || vs.GuildID != r.GuildID || r.Rooms == nil {
		return
	}
	ev := voicerooms.VoiceStateChange{
		UserID:         vs.UserID,
		AfterChannelID: vs.ChannelID,
	}
	if vs.BeforeUpdate != nil {
		ev.BeforeChannelID = vs.BeforeUpdate.ChannelID
	}
	if ev.BeforeChannelID == ev.AfterChannelID {
		// mute, deafen and stream toggles
		return
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), r.Log, "voice state")
	defer cancel()
	if err := r.Rooms.HandleVoiceState(ctx, ev); err != nil {
		r.Log.Warn("voice state handling failed",
			zap.String("user_id", ev.UserID),
			zap.String("before", ev.BeforeChannelID),
			zap.String("after", ev.AfterChannelID),
			zap.Error(err))
	}
}

// interactionUser returns the invoking user for guild and DM interactions.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// HandleInteraction answers a component or modal interaction.
func (r *Router) HandleInteraction(ctx context.Context, resp Responder, i *discordgo.Interaction) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), r.Log, "interaction")
	defer cancel()

	var err error
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		switch {
		case data.CustomID == platform.RequestButtonID:
			err = r.onRequestButton(ctx, resp, i, user)
		case data.CustomID == EnterCodeButton:
			err = resp.InteractionRespond(i, codeModal())
		case data.CustomID == CancelButton:
			err = r.onCancel(ctx, resp, i, user)
		case strings.HasPrefix(data.CustomID, ClanSelectPrefix):
			err = r.onClanSelect(ctx, resp, i, user, data)
		default:
			return
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		switch data.CustomID {
		case EmailModalID:
			err = r.onEmailSubmit(ctx, resp, i, user, ModalValue(data, EmailInputID))
		case CodeModalID:
			err = r.onCodeSubmit(ctx, resp, i, user, ModalValue(data, CodeInputID))
		default:
			return
		}
	default:
		return
	}
	if err != nil {
		r.Log.Error("interaction response failed",
			zap.String("user_id", user.ID),
			zap.String("type", i.Type.String()),
			zap.Error(err))
	}
}

// ModalValue returns the trimmed value of the text input customID.
func ModalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok && ti.CustomID == customID {
				return strings.TrimSpace(ti.Value)
			}
		}
	}
	return ""
}

// ParseClanSelect extracts the guild id from a clan select custom id.
func ParseClanSelect(customID string) (guildID string, ok bool) {
	guildID, ok = strings.CutPrefix(customID, ClanSelectPrefix)
	return guildID, ok && guildID != ""
}

func ephemeral(content string, components ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}
}

func deferred() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}
}

// edit replaces a deferred response with content and components.
func edit(resp Responder, i *discordgo.Interaction, content string, components ...discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := resp.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	})
	return err
}

func codeButtons() discordgo.MessageComponent {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Enter Code",
			Style:    discordgo.SuccessButton,
			Emoji:    &discordgo.ComponentEmoji{Name: "🔑"},
			CustomID: EnterCodeButton,
		},
		discordgo.Button{
			Label:    "Start Over",
			Style:    discordgo.SecondaryButton,
			CustomID: CancelButton,
		},
	}}
}

func emailModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: EmailModalID,
			Title:    "Clan Verification",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    EmailInputID,
						Label:       "Registered email address",
						Style:       discordgo.TextInputShort,
						Placeholder: "you@example.com",
						Required:    true,
						MaxLength:   254,
					},
				}},
			},
		},
	}
}

func codeModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CodeModalID,
			Title:    "Enter Verification Code",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    CodeInputID,
						Label:       "6-digit code from your email",
						Style:       discordgo.TextInputShort,
						Placeholder: "123456",
						Required:    true,
						MinLength:   6,
						MaxLength:   6,
					},
				}},
			},
		},
	}
}

func (r *Router) onRequestButton(ctx context.Context, resp Responder, i *discordgo.Interaction, user *discordgo.User) error {
	if i.GuildID != r.GuildID {
		return resp.InteractionRespond(i, ephemeral("This button only works inside the server."))
	}

	m, verified, err := r.Verifier.AlreadyVerified(ctx, user.ID)
	if err != nil {
		r.Log.Error("verified lookup failed", zap.String("user_id", user.ID), zap.Error(err))
		return resp.InteractionRespond(i, ephemeral(genericFailure))
	}
	if verified {
		return resp.InteractionRespond(i, ephemeral(fmt.Sprintf(
			"✅ You're already verified as a member of **%s**.", m.AssignedClan)))
	}

	req, pending, err := r.Verifier.Pending(ctx, user.ID)
	if err != nil {
		r.Log.Error("pending lookup failed", zap.String("user_id", user.ID), zap.Error(err))
		return resp.InteractionRespond(i, ephemeral(genericFailure))
	}
	if pending {
		return resp.InteractionRespond(i, ephemeral(fmt.Sprintf(
			"📧 A code was already sent to **%s**. Enter it below, or start over to use a different email.", req.Email),
			codeButtons()))
	}
	return resp.InteractionRespond(i, emailModal())
}

func (r *Router) onEmailSubmit(ctx context.Context, resp Responder, i *discordgo.Interaction, user *discordgo.User, email string) error {
	if i.GuildID != r.GuildID {
		return resp.InteractionRespond(i, ephemeral("This form only works inside the server."))
	}
	// Sending mail can outlast the three second response window.
	if err := resp.InteractionRespond(i, deferred()); err != nil {
		return err
	}

	res, err := r.Verifier.Issue(ctx, verification.IssueInput{
		DiscordID: user.ID,
		Username:  user.Username,
		Email:     email,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			r.Log.Error("issue verification code", zap.String("user_id", user.ID), zap.Error(err))
		}
		return edit(resp, i, "❌ "+apperr.Message(err, genericFailure))
	}
	return edit(resp, i, fmt.Sprintf(
		"📧 A verification code for **%s** has been sent to **%s**. It expires in %d minutes.",
		res.Clan.Name, res.Mentee.Email, int(res.TTL.Minutes())),
		codeButtons())
}

// CodeReply is the message shown for a code submission.
func CodeReply(res verification.SubmitResult, err error) (content string, retry bool) {
	if err != nil {
		return "❌ " + apperr.Message(err, genericFailure), false
	}
	switch res.Outcome {
	case verification.OutcomeVerified:
		return fmt.Sprintf("✅ You're verified! You now have the **%s** role.", res.Clan.Name), false
	case verification.OutcomeWrongCode:
		return fmt.Sprintf("❌ Incorrect code. %d attempt(s) left.", res.AttemptsLeft), true
	case verification.OutcomeExpired:
		return "⌛ Your code has expired. Please click the verification button to start over.", false
	case verification.OutcomeRoleFailed:
		return "⚠️ Your code was correct but the clan role could not be assigned. Please contact an administrator.", false
	}
	return genericFailure, false
}

func (r *Router) onCodeSubmit(ctx context.Context, resp Responder, i *discordgo.Interaction, user *discordgo.User, code string) error {
	if err := resp.InteractionRespond(i, deferred()); err != nil {
		return err
	}
	res, err := r.Verifier.SubmitCode(ctx, user.ID, code)
	if err != nil && apperr.KindOf(err) == apperr.KindUnknown {
		r.Log.Error("submit verification code", zap.String("user_id", user.ID), zap.Error(err))
	}
	content, retry := CodeReply(res, err)
	if retry {
		return edit(resp, i, content, codeButtons())
	}
	return edit(resp, i, content)
}

func (r *Router) onCancel(ctx context.Context, resp Responder, i *discordgo.Interaction, user *discordgo.User) error {
	cancelled, err := r.Verifier.Cancel(ctx, user.ID)
	if err != nil {
		r.Log.Error("cancel verification", zap.String("user_id", user.ID), zap.Error(err))
		return resp.InteractionRespond(i, ephemeral(genericFailure))
	}
	if !cancelled {
		return resp.InteractionRespond(i, ephemeral("There is no pending verification to cancel."))
	}
	return resp.InteractionRespond(i, ephemeral("Verification cancelled. Click the verification button to start again."))
}

func (r *Router) onClanSelect(ctx context.Context, resp Responder, i *discordgo.Interaction, user *discordgo.User, data discordgo.MessageComponentInteractionData) error {
	guildID, ok := ParseClanSelect(data.CustomID)
	if !ok || guildID != r.GuildID || len(data.Values) == 0 {
		return resp.InteractionRespond(i, ephemeral("This selection is no longer valid."))
	}
	if r.Rooms == nil {
		return resp.InteractionRespond(i, ephemeral(genericFailure))
	}
	room, err := r.Rooms.ChooseClan(ctx, user.ID, data.Values[0])
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			r.Log.Error("start clan meeting", zap.String("user_id", user.ID), zap.Error(err))
		}
		return resp.InteractionRespond(i, ephemeral("❌ "+apperr.Message(err, genericFailure)))
	}
	clan := strings.TrimSuffix(room.Channel.Name, voicerooms.RoomSuffix)
	return resp.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    fmt.Sprintf("✅ Started meeting for **%s**", clan),
			Components: []discordgo.MessageComponent{},
		},
	})
}
