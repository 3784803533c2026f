// internal/app/platform/discord/adapter.go
// Package discord implements the platform capabilities on top of a
// discordgo session and routes gateway events to the verification and
// voice room services.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/devweekends/clanverify/internal/app/platform"
	"go.uber.org/zap"
)

// membersPageSize is the largest page the members endpoint accepts.
const membersPageSize = 1000

// Adapter is a platform.Platform bound to a single guild.
type Adapter struct {
	Session *discordgo.Session
	GuildID string
	Log     *zap.Logger
}

func NewAdapter(s *discordgo.Session, guildID string, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{Session: s, GuildID: guildID, Log: logger}
}

var (
	_ platform.Platform    = (*Adapter)(nil)
	_ platform.ClanChooser = (*Adapter)(nil)
)

// TranslateError maps REST errors with a known "unknown entity" code onto the
// platform sentinels. Other errors are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return err
	}
	switch rest.Message.Code {
	case discordgo.ErrCodeUnknownChannel:
		return fmt.Errorf("%w: %w", platform.ErrUnknownChannel, err)
	case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
		return fmt.Errorf("%w: %w", platform.ErrUnknownMember, err)
	case discordgo.ErrCodeUnknownMessage:
		return fmt.Errorf("%w: %w", platform.ErrUnknownMessage, err)
	case discordgo.ErrCodeUnknownRole:
		return fmt.Errorf("%w: %w", platform.ErrUnknownRole, err)
	}
	return err
}

func toMember(m *discordgo.Member) platform.Member {
	out := platform.Member{Roles: append([]string(nil), m.Roles...)}
	if m.User != nil {
		out.UserID = m.User.ID
		out.Username = m.User.Username
		out.Bot = m.User.Bot
	}
	return out
}

func channelType(t discordgo.ChannelType) platform.ChannelType {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return platform.ChannelText
	case discordgo.ChannelTypeGuildVoice:
		return platform.ChannelVoice
	case discordgo.ChannelTypeGuildCategory:
		return platform.ChannelCategory
	}
	return platform.ChannelOther
}

func toChannel(c *discordgo.Channel) platform.Channel {
	t := channelType(c.Type)
	return platform.Channel{
		ID:       c.ID,
		Name:     c.Name,
		ParentID: c.ParentID,
		Type:     t,
		TypeName: t.String(),
		Position: c.Position,
	}
}

func (a *Adapter) Member(ctx context.Context, userID string) (platform.Member, error) {
	m, err := a.Session.GuildMember(a.GuildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, TranslateError(err)
	}
	return toMember(m), nil
}

func (a *Adapter) Members(ctx context.Context) ([]platform.Member, error) {
	var out []platform.Member
	after := ""
	for {
		page, err := a.Session.GuildMembers(a.GuildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, TranslateError(err)
		}
		for _, m := range page {
			out = append(out, toMember(m))
		}
		if len(page) < membersPageSize {
			return out, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return out, nil
		}
		after = last.User.ID
	}
}

func (a *Adapter) AddRole(ctx context.Context, userID, roleID, reason string) error {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return TranslateError(a.Session.GuildMemberRoleAdd(a.GuildID, userID, roleID, opts...))
}

func (a *Adapter) RemoveRole(ctx context.Context, userID, roleID, reason string) error {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return TranslateError(a.Session.GuildMemberRoleRemove(a.GuildID, userID, roleID, opts...))
}

func (a *Adapter) DeleteRole(ctx context.Context, roleID string) error {
	return TranslateError(a.Session.GuildRoleDelete(a.GuildID, roleID, discordgo.WithContext(ctx)))
}

func (a *Adapter) Roles(ctx context.Context) ([]platform.Role, error) {
	roles, err := a.Session.GuildRoles(a.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, TranslateError(err)
	}
	out := make([]platform.Role, 0, len(roles))
	for _, r := range roles {
		// @everyone shares the guild id.
		if r.ID == a.GuildID {
			continue
		}
		out = append(out, platform.Role{
			ID:       r.ID,
			Name:     r.Name,
			Color:    r.Color,
			Position: r.Position,
			Managed:  r.Managed,
		})
	}
	return out, nil
}

func (a *Adapter) Channels(ctx context.Context) ([]platform.Channel, error) {
	chans, err := a.Session.GuildChannels(a.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, TranslateError(err)
	}
	out := make([]platform.Channel, 0, len(chans))
	for _, c := range chans {
		out = append(out, toChannel(c))
	}
	return out, nil
}

func (a *Adapter) FindVoiceChannel(ctx context.Context, categoryID, name string) (platform.Channel, bool, error) {
	chans, err := a.Channels(ctx)
	if err != nil {
		return platform.Channel{}, false, err
	}
	for _, c := range chans {
		if c.Type == platform.ChannelVoice && c.ParentID == categoryID && c.Name == name {
			return c, true, nil
		}
	}
	return platform.Channel{}, false, nil
}

func (a *Adapter) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	c, err := a.Session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, TranslateError(err)
	}
	return toChannel(c), nil
}

const (
	memberPerms = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak
	ownerPerms  = memberPerms | discordgo.PermissionVoiceMoveMembers |
		discordgo.PermissionVoiceMuteMembers | discordgo.PermissionVoiceDeafenMembers
)

// roomOverwrites hides the room from everyone except the clan role and
// gives the owner moderation rights inside it.
func roomOverwrites(guildID string, spec platform.RoomSpec) []*discordgo.PermissionOverwrite {
	ow := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    spec.RoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberPerms,
		},
	}
	if spec.OwnerID != "" {
		ow = append(ow, &discordgo.PermissionOverwrite{
			ID:    spec.OwnerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ownerPerms,
		})
	}
	return ow
}

func (a *Adapter) CreateRoom(ctx context.Context, spec platform.RoomSpec) (platform.Channel, error) {
	c, err := a.Session.GuildChannelCreateComplex(a.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		ParentID:             spec.CategoryID,
		PermissionOverwrites: roomOverwrites(a.GuildID, spec),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, TranslateError(err)
	}
	return toChannel(c), nil
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := a.Session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return TranslateError(err)
}

// voiceStates copies the guild's voice states out of the gateway cache.
func (a *Adapter) voiceStates() ([]discordgo.VoiceState, error) {
	g, err := a.Session.State.Guild(a.GuildID)
	if err != nil {
		return nil, fmt.Errorf("guild state: %w", err)
	}
	a.Session.State.RLock()
	defer a.Session.State.RUnlock()
	out := make([]discordgo.VoiceState, 0, len(g.VoiceStates))
	for _, vs := range g.VoiceStates {
		if vs != nil {
			out = append(out, *vs)
		}
	}
	return out, nil
}

func (a *Adapter) Occupancy(_ context.Context, channelID string) (int, error) {
	states, err := a.voiceStates()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, vs := range states {
		if vs.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (a *Adapter) VoiceChannelOf(_ context.Context, userID string) (string, error) {
	states, err := a.voiceStates()
	if err != nil {
		return "", err
	}
	for _, vs := range states {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}
	return "", nil
}

func (a *Adapter) MoveMember(ctx context.Context, userID, channelID string) error {
	return TranslateError(a.Session.GuildMemberMove(a.GuildID, userID, &channelID, discordgo.WithContext(ctx)))
}

func (a *Adapter) SendDM(ctx context.Context, userID, content string) error {
	ch, err := a.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return TranslateError(err)
	}
	_, err = a.Session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return TranslateError(err)
}

func toEmbed(e platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

func (a *Adapter) SendEmbed(ctx context.Context, channelID string, e platform.Embed) error {
	_, err := a.Session.ChannelMessageSendEmbed(channelID, toEmbed(e), discordgo.WithContext(ctx))
	return TranslateError(err)
}

func panelButton(b platform.Button) discordgo.Button {
	btn := discordgo.Button{
		Label:    b.Label,
		Style:    discordgo.PrimaryButton,
		CustomID: b.CustomID,
	}
	if b.Emoji != "" {
		btn.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
	}
	return btn
}

func (a *Adapter) SendPanel(ctx context.Context, channelID string, e platform.Embed, b platform.Button) (string, error) {
	msg, err := a.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{toEmbed(e)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{panelButton(b)}},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", TranslateError(err)
	}
	return msg.ID, nil
}

func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return TranslateError(a.Session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// maxSelectOptions is the option limit of a select menu.
const maxSelectOptions = 25

// PromptClanChoice DMs userID a select menu of options. The selection comes
// back as a component interaction handled by the Router.
func (a *Adapter) PromptClanChoice(ctx context.Context, userID string, options []platform.ClanOption) error {
	if len(options) > maxSelectOptions {
		options = options[:maxSelectOptions]
	}
	opts := make([]discordgo.SelectMenuOption, 0, len(options))
	for _, o := range options {
		opts = append(opts, discordgo.SelectMenuOption{
			Label:       o.Name,
			Value:       o.ID,
			Description: "Start a " + o.Name + " meeting",
		})
	}
	ch, err := a.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return TranslateError(err)
	}
	_, err = a.Session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: "You belong to more than one clan. Which clan meeting do you want to start?",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    ClanSelectPrefix + a.GuildID,
					Placeholder: "Choose a clan",
					Options:     opts,
				},
			}},
		},
	}, discordgo.WithContext(ctx))
	return TranslateError(err)
}
