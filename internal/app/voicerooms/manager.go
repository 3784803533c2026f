// internal/app/voicerooms/manager.go
// Package voicerooms opens and closes temporary per-clan voice rooms.
//
// A member who joins the configured join-to-create channel gets moved
// into "<clan> Clan Meet" under the temporary voice category, creating it
// when needed. Rooms with that suffix are deleted as soon as they empty.
package voicerooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/metrics"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RoomSuffix marks channels this package owns.
const RoomSuffix = " Clan Meet"

// RoomName is the deterministic room name for clan.
func RoomName(clan models.Clan) string {
	return clan.Name + RoomSuffix
}

// IsClanRoom reports whether a channel name belongs to a temporary room.
func IsClanRoom(name string) bool {
	return strings.HasSuffix(name, RoomSuffix) && len(name) > len(RoomSuffix)
}

type ClanStore interface {
	ListEnabled(ctx context.Context) ([]models.Clan, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Clan, error)
}

type ConfigStore interface {
	Get(ctx context.Context) (models.BotConfig, error)
}

// Platform is the surface rooms need: member roles and voice channels.
type Platform interface {
	Member(ctx context.Context, userID string) (platform.Member, error)
	platform.Rooms
}

// VoiceStateChange is one presence transition. Either side may be empty.
type VoiceStateChange struct {
	UserID          string
	BeforeChannelID string
	AfterChannelID  string
}

// Room is the outcome of CreateOrReuse.
type Room struct {
	Channel platform.Channel
	Created bool
	Moved   bool
}

// Manager handles voice presence events.
type Manager struct {
	Clans    ClanStore
	Config   ConfigStore
	Platform Platform
	Chooser  platform.ClanChooser
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	creating singleflight.Group
}

func New(clans ClanStore, cfg ConfigStore, p Platform, chooser platform.ClanChooser, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{Clans: clans, Config: cfg, Platform: p, Chooser: chooser, Metrics: m, Log: logger}
}

// HandleVoiceState applies a presence change. A switch between channels
// runs the leave path for the old channel before the join path for the
// new one. Both paths run even if the first fails; the errors are joined.
func (m *Manager) HandleVoiceState(ctx context.Context, ev VoiceStateChange) error {
	if ev.BeforeChannelID == ev.AfterChannelID {
		return nil
	}
	var errs []error
	if ev.BeforeChannelID != "" {
		if err := m.handleLeave(ctx, ev.BeforeChannelID); err != nil {
			errs = append(errs, err)
		}
	}
	if ev.AfterChannelID != "" {
		if err := m.handleJoin(ctx, ev.UserID, ev.AfterChannelID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) handleLeave(ctx context.Context, channelID string) error {
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), m.Log, "inspect vacated voice channel")
	defer cancel()

	ch, err := m.Platform.Channel(pctx, channelID)
	if errors.Is(err, platform.ErrUnknownChannel) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	if ch.Type != platform.ChannelVoice || !IsClanRoom(ch.Name) {
		return nil
	}

	n, err := m.Platform.Occupancy(pctx, channelID)
	if err != nil {
		return fmt.Errorf("occupancy of %s: %w", channelID, err)
	}
	if n > 0 {
		return nil
	}

	err = m.Platform.DeleteChannel(pctx, channelID)
	switch {
	case err == nil:
		m.Metrics.Room(metrics.RoomDeleted)
		m.Log.Info("deleted empty clan room", zap.String("channel_id", channelID), zap.String("name", ch.Name))
		return nil
	case errors.Is(err, platform.ErrUnknownChannel):
		// Another leave event got there first.
		return nil
	default:
		m.Metrics.Room(metrics.RoomDeleteFailed)
		m.Log.Error("delete clan room", zap.String("channel_id", channelID), zap.Error(err))
		return apperr.External("Could not delete voice room.", err)
	}
}

func (m *Manager) handleJoin(ctx context.Context, userID, channelID string) error {
	cfg, err := m.Config.Get(ctx)
	if err != nil {
		return fmt.Errorf("load bot config: %w", err)
	}
	if cfg.JoinToCreateChannelID == "" || channelID != cfg.JoinToCreateChannelID {
		return nil
	}

	clans, err := m.MemberClans(ctx, userID)
	if err != nil {
		return err
	}
	switch len(clans) {
	case 0:
		m.Log.Debug("join-to-create by member without clan role", zap.String("user_id", userID))
		return nil
	case 1:
		_, err := m.CreateOrReuse(ctx, userID, clans[0])
		return err
	}

	if m.Chooser == nil {
		_, err := m.CreateOrReuse(ctx, userID, clans[0])
		return err
	}
	opts := make([]platform.ClanOption, 0, len(clans))
	for _, c := range clans {
		opts = append(opts, platform.ClanOption{ID: c.ID.Hex(), Name: c.Name})
	}
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), m.Log, "prompt clan choice")
	defer cancel()
	if err := m.Chooser.PromptClanChoice(pctx, userID, opts); err != nil {
		return apperr.External("Could not ask which clan room to open.", err)
	}
	return nil
}

// MemberClans returns the enabled clans whose role userID holds, in name
// order. Bots belong to no clan.
func (m *Manager) MemberClans(ctx context.Context, userID string) ([]models.Clan, error) {
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), m.Log, "fetch member roles")
	member, err := m.Platform.Member(pctx, userID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	if member.Bot {
		return nil, nil
	}

	enabled, err := m.Clans.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled clans: %w", err)
	}
	var out []models.Clan
	for _, c := range enabled {
		if c.RoleID != "" && member.HasRole(c.RoleID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ChooseClan completes a multi-clan join once the member picked clanID.
func (m *Manager) ChooseClan(ctx context.Context, userID, clanID string) (Room, error) {
	oid, err := primitive.ObjectIDFromHex(clanID)
	if err != nil {
		return Room{}, apperr.Validation("Unknown clan.")
	}
	clan, err := m.Clans.GetByID(ctx, oid)
	if err != nil {
		return Room{}, apperr.Wrap(apperr.KindNotFound, "Clan not found.", err)
	}
	if !clan.Enabled {
		return Room{}, apperr.NotFound("Clan not found.")
	}
	return m.CreateOrReuse(ctx, userID, clan)
}

// CreateOrReuse opens the clan's room under the temporary voice category,
// reusing an existing one of the same name. Concurrent calls for the same
// room share one creation. The member is moved in only when they are
// already connected to voice.
func (m *Manager) CreateOrReuse(ctx context.Context, userID string, clan models.Clan) (Room, error) {
	cfg, err := m.Config.Get(ctx)
	if err != nil {
		return Room{}, fmt.Errorf("load bot config: %w", err)
	}
	if clan.RoleID == "" {
		return Room{}, apperr.Validation(fmt.Sprintf("Clan %s has no role configured.", clan.Name))
	}

	name := RoomName(clan)
	key := cfg.TempVoiceCategoryID + "/" + name

	v, err, _ := m.creating.Do(key, func() (interface{}, error) {
		return m.findOrCreate(ctx, cfg.TempVoiceCategoryID, name, clan.RoleID, userID)
	})
	if err != nil {
		return Room{}, err
	}
	room := v.(Room)

	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), m.Log, "move member to clan room")
	defer cancel()
	current, err := m.Platform.VoiceChannelOf(pctx, userID)
	if err != nil {
		m.Log.Warn("voice state lookup", zap.String("user_id", userID), zap.Error(err))
		return room, nil
	}
	if current == "" || current == room.Channel.ID {
		return room, nil
	}
	if err := m.Platform.MoveMember(pctx, userID, room.Channel.ID); err != nil {
		m.Log.Warn("move member to clan room",
			zap.String("user_id", userID),
			zap.String("channel_id", room.Channel.ID),
			zap.Error(err))
		return room, nil
	}
	room.Moved = true
	return room, nil
}

func (m *Manager) findOrCreate(ctx context.Context, categoryID, name, roleID, ownerID string) (Room, error) {
	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), m.Log, "open clan room")
	defer cancel()

	ch, ok, err := m.Platform.FindVoiceChannel(pctx, categoryID, name)
	if err != nil {
		return Room{}, fmt.Errorf("find voice channel %q: %w", name, err)
	}
	if ok {
		m.Metrics.Room(metrics.RoomReused)
		return Room{Channel: ch}, nil
	}

	ch, err = m.Platform.CreateRoom(pctx, platform.RoomSpec{
		Name:       name,
		CategoryID: categoryID,
		RoleID:     roleID,
		OwnerID:    ownerID,
	})
	if err != nil {
		m.Log.Error("create clan room", zap.String("name", name), zap.Error(err))
		return Room{}, apperr.External("Could not create voice room.", err)
	}
	m.Metrics.Room(metrics.RoomCreated)
	m.Log.Info("created clan room",
		zap.String("channel_id", ch.ID),
		zap.String("name", name),
		zap.String("owner_id", ownerID))
	return Room{Channel: ch, Created: true}, nil
}
