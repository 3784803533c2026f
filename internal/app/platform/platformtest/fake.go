// internal/app/platform/platformtest/fake.go
// Package platformtest provides an in-memory platform for service tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devweekends/clanverify/internal/app/platform"
)

// Sent records a message the fake delivered.
type Sent struct {
	ChannelID string
	Content   string
	Embed     platform.Embed
	Button    platform.Button
	MessageID string
}

// Prompt records a clan choice presented to a user.
type Prompt struct {
	UserID  string
	Options []platform.ClanOption
}

// Fake implements platform.Platform and platform.ClanChooser in memory.
// Operations can be made to fail with FailOn.
type Fake struct {
	mu sync.Mutex

	members  map[string]*platform.Member
	roles    map[string]platform.Role
	channels map[string]platform.Channel
	voice    map[string]string // userID -> channelID
	failures map[string]error
	seq      int

	// CreateDelay slows CreateRoom down to widen race windows in tests.
	CreateDelay time.Duration

	DMs         []Sent
	Embeds      []Sent
	Panels      []Sent
	Deleted     []string // deleted message ids
	Prompts     []Prompt
	CreateCalls int
}

func New() *Fake {
	return &Fake{
		members:  map[string]*platform.Member{},
		roles:    map[string]platform.Role{},
		channels: map[string]platform.Channel{},
		voice:    map[string]string{},
		failures: map[string]error{},
	}
}

// FailOn makes every call of op return err. A nil err clears the failure.
// Op names match the method names, e.g. "AddRole" or "CreateRoom".
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

func (f *Fake) fail(op string) error {
	return f.failures[op]
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// AddMember registers a guild member holding roles.
func (f *Fake) AddMember(userID, username string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[userID] = &platform.Member{UserID: userID, Username: username, Roles: append([]string(nil), roles...)}
}

// AddBot registers a bot member.
func (f *Fake) AddBot(userID string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[userID] = &platform.Member{UserID: userID, Username: userID, Roles: append([]string(nil), roles...), Bot: true}
}

// RemoveMember makes userID leave the guild.
func (f *Fake) RemoveMember(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, userID)
	delete(f.voice, userID)
}

func (f *Fake) AddGuildRole(r platform.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[r.ID] = r
}

// AddChannel registers a channel and returns it with an assigned id when
// ch.ID is empty.
func (f *Fake) AddChannel(ch platform.Channel) platform.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch.ID == "" {
		ch.ID = f.nextID("ch")
	}
	ch.TypeName = ch.Type.String()
	f.channels[ch.ID] = ch
	return ch
}

// Connect puts userID in voice channel channelID ("" disconnects).
func (f *Fake) Connect(userID, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if channelID == "" {
		delete(f.voice, userID)
		return
	}
	f.voice[userID] = channelID
}

// HasRole reports whether userID currently holds roleID.
func (f *Fake) HasRole(userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	return ok && m.HasRole(roleID)
}

// ChannelExists reports whether channelID has not been deleted.
func (f *Fake) ChannelExists(channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelID]
	return ok
}

// ChannelsNamed returns all channels called name.
func (f *Fake) ChannelsNamed(name string) []platform.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Channel
	for _, ch := range f.channels {
		if ch.Name == name {
			out = append(out, ch)
		}
	}
	return out
}

// --- Directory ---

func (f *Fake) Member(_ context.Context, userID string) (platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Member"); err != nil {
		return platform.Member{}, err
	}
	m, ok := f.members[userID]
	if !ok {
		return platform.Member{}, platform.ErrUnknownMember
	}
	out := *m
	out.Roles = append([]string(nil), m.Roles...)
	return out, nil
}

func (f *Fake) Members(_ context.Context) ([]platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Members"); err != nil {
		return nil, err
	}
	out := make([]platform.Member, 0, len(f.members))
	for _, m := range f.members {
		c := *m
		c.Roles = append([]string(nil), m.Roles...)
		out = append(out, c)
	}
	return out, nil
}

func (f *Fake) AddRole(_ context.Context, userID, roleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("AddRole"); err != nil {
		return err
	}
	m, ok := f.members[userID]
	if !ok {
		return platform.ErrUnknownMember
	}
	if !m.HasRole(roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (f *Fake) RemoveRole(_ context.Context, userID, roleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("RemoveRole"); err != nil {
		return err
	}
	m, ok := f.members[userID]
	if !ok {
		return platform.ErrUnknownMember
	}
	kept := m.Roles[:0]
	for _, r := range m.Roles {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	m.Roles = kept
	return nil
}

func (f *Fake) DeleteRole(_ context.Context, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteRole"); err != nil {
		return err
	}
	if _, ok := f.roles[roleID]; !ok {
		return platform.ErrUnknownRole
	}
	delete(f.roles, roleID)
	for _, m := range f.members {
		kept := m.Roles[:0]
		for _, r := range m.Roles {
			if r != roleID {
				kept = append(kept, r)
			}
		}
		m.Roles = kept
	}
	return nil
}

func (f *Fake) Roles(_ context.Context) ([]platform.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Roles"); err != nil {
		return nil, err
	}
	out := make([]platform.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

// RoleExists reports whether roleID has not been deleted.
func (f *Fake) RoleExists(roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.roles[roleID]
	return ok
}

// --- Rooms ---

func (f *Fake) Channels(_ context.Context) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Channels"); err != nil {
		return nil, err
	}
	out := make([]platform.Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		out = append(out, ch)
	}
	return out, nil
}

func (f *Fake) FindVoiceChannel(_ context.Context, categoryID, name string) (platform.Channel, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("FindVoiceChannel"); err != nil {
		return platform.Channel{}, false, err
	}
	for _, ch := range f.channels {
		if ch.Type == platform.ChannelVoice && ch.ParentID == categoryID && ch.Name == name {
			return ch, true, nil
		}
	}
	return platform.Channel{}, false, nil
}

func (f *Fake) Channel(_ context.Context, channelID string) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Channel"); err != nil {
		return platform.Channel{}, err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.Channel{}, platform.ErrUnknownChannel
	}
	return ch, nil
}

func (f *Fake) CreateRoom(_ context.Context, spec platform.RoomSpec) (platform.Channel, error) {
	f.mu.Lock()
	f.CreateCalls++
	delay := f.CreateDelay
	err := f.fail("CreateRoom")
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return platform.Channel{}, err
	}
	return f.AddChannel(platform.Channel{
		Name:     spec.Name,
		ParentID: spec.CategoryID,
		Type:     platform.ChannelVoice,
	}), nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteChannel"); err != nil {
		return err
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrUnknownChannel
	}
	delete(f.channels, channelID)
	return nil
}

func (f *Fake) Occupancy(_ context.Context, channelID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Occupancy"); err != nil {
		return 0, err
	}
	n := 0
	for _, ch := range f.voice {
		if ch == channelID {
			n++
		}
	}
	return n, nil
}

func (f *Fake) VoiceChannelOf(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("VoiceChannelOf"); err != nil {
		return "", err
	}
	return f.voice[userID], nil
}

func (f *Fake) MoveMember(_ context.Context, userID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("MoveMember"); err != nil {
		return err
	}
	if _, ok := f.voice[userID]; !ok {
		return fmt.Errorf("member %s is not connected to voice", userID)
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrUnknownChannel
	}
	f.voice[userID] = channelID
	return nil
}

// VoiceChannel returns the channel userID is connected to, without
// going through failure injection.
func (f *Fake) VoiceChannel(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice[userID]
}

// --- Messenger ---

func (f *Fake) SendDM(_ context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SendDM"); err != nil {
		return err
	}
	f.DMs = append(f.DMs, Sent{ChannelID: userID, Content: content})
	return nil
}

func (f *Fake) SendEmbed(_ context.Context, channelID string, e platform.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SendEmbed"); err != nil {
		return err
	}
	f.Embeds = append(f.Embeds, Sent{ChannelID: channelID, Embed: e})
	return nil
}

func (f *Fake) SendPanel(_ context.Context, channelID string, e platform.Embed, b platform.Button) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SendPanel"); err != nil {
		return "", err
	}
	id := f.nextID("msg")
	f.Panels = append(f.Panels, Sent{ChannelID: channelID, Embed: e, Button: b, MessageID: id})
	return id, nil
}

func (f *Fake) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteMessage"); err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

// --- ClanChooser ---

func (f *Fake) PromptClanChoice(_ context.Context, userID string, options []platform.ClanOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("PromptClanChoice"); err != nil {
		return err
	}
	f.Prompts = append(f.Prompts, Prompt{UserID: userID, Options: append([]platform.ClanOption(nil), options...)})
	return nil
}

var (
	_ platform.Platform    = (*Fake)(nil)
	_ platform.ClanChooser = (*Fake)(nil)
)
