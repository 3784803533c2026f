// internal/app/platform/platform.go
// Package platform describes the chat-platform capabilities the
// verification, room and reconciliation services depend on. The Discord
// adapter in platform/discord implements them against a live gateway
// session; platformtest provides an in-memory fake.
package platform

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors adapters translate platform failures into.
var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrUnknownMember  = errors.New("unknown member")
	ErrUnknownMessage = errors.New("unknown message")
	ErrUnknownRole    = errors.New("unknown role")
)

// Member is a guild member as seen by the services.
type Member struct {
	UserID   string
	Username string
	Roles    []string
	Bot      bool
}

// HasRole reports whether the member currently holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// ChannelType distinguishes the channel kinds the services care about.
type ChannelType int

const (
	ChannelText ChannelType = iota
	ChannelVoice
	ChannelCategory
	ChannelOther
)

func (t ChannelType) String() string {
	switch t {
	case ChannelText:
		return "text"
	case ChannelVoice:
		return "voice"
	case ChannelCategory:
		return "category"
	}
	return "other"
}

type Channel struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	ParentID string      `json:"parent_id,omitempty"`
	Type     ChannelType `json:"-"`
	TypeName string      `json:"type"`
	Position int         `json:"position"`
}

type Role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
	Managed  bool   `json:"managed"`
}

// RoomSpec describes a voice room to create. Only RoleID can see the room;
// OwnerID additionally gets move, mute and deafen rights.
type RoomSpec struct {
	Name       string
	CategoryID string
	RoleID     string
	OwnerID    string
}

// EmbedField is one name/value pair of an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich channel message.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Thumbnail   string
	Timestamp   time.Time
}

// RequestButtonID is the custom id of the button on the verification panel.
const RequestButtonID = "request_clan_role"

// Button is an interactive button attached to a panel message.
type Button struct {
	CustomID string
	Label    string
	Emoji    string
}

// Directory is the member and role surface.
type Directory interface {
	Member(ctx context.Context, userID string) (Member, error)
	// Members lists every member of the guild.
	Members(ctx context.Context) ([]Member, error)
	AddRole(ctx context.Context, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, userID, roleID, reason string) error
	DeleteRole(ctx context.Context, roleID string) error
	Roles(ctx context.Context) ([]Role, error)
}

// Rooms is the voice channel surface.
type Rooms interface {
	Channels(ctx context.Context) ([]Channel, error)
	// FindVoiceChannel returns the voice channel named name under categoryID.
	// ok is false when no such channel exists.
	FindVoiceChannel(ctx context.Context, categoryID, name string) (ch Channel, ok bool, err error)
	Channel(ctx context.Context, channelID string) (Channel, error)
	CreateRoom(ctx context.Context, spec RoomSpec) (Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	// Occupancy is the number of members connected to channelID.
	Occupancy(ctx context.Context, channelID string) (int, error)
	// VoiceChannelOf returns the voice channel userID is connected to, or "".
	VoiceChannelOf(ctx context.Context, userID string) (string, error)
	MoveMember(ctx context.Context, userID, channelID string) error
}

// Messenger is the messaging surface.
type Messenger interface {
	SendDM(ctx context.Context, userID, content string) error
	SendEmbed(ctx context.Context, channelID string, e Embed) error
	// SendPanel posts an embed with a single button and returns the message id.
	SendPanel(ctx context.Context, channelID string, e Embed, b Button) (string, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Platform combines every capability.
type Platform interface {
	Directory
	Rooms
	Messenger
}

// ClanOption is one choice presented to a member who belongs to several
// clans.
type ClanOption struct {
	ID   string
	Name string
}

// ClanChooser asks a member which clan room to open. The answer arrives
// asynchronously through the adapter's interaction handling.
type ClanChooser interface {
	PromptClanChoice(ctx context.Context, userID string, options []ClanOption) error
}
