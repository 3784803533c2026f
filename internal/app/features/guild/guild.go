// internal/app/features/guild/guild.go
package guild

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	"github.com/devweekends/clanverify/internal/app/platform"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
)

var errNotConnected = apperr.External("Discord is not connected.", nil)

type role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position int    `json:"position"`
}

// ServeRoles handles GET /api/discord/roles. Integration-managed roles
// cannot be granted by the bot and are left out. Highest position first.
func (h *Handler) ServeRoles(w http.ResponseWriter, r *http.Request) {
	if h.Platform == nil {
		respond.Error(w, h.Log, "list guild roles", errNotConnected)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Platform(), h.Log, "list guild roles")
	defer cancel()

	roles, err := h.Platform.Roles(ctx)
	if err != nil {
		respond.Error(w, h.Log, "list guild roles", apperr.External("Could not load roles from Discord.", err))
		return
	}
	sort.SliceStable(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })

	out := make([]role, 0, len(roles))
	for _, rl := range roles {
		if rl.Managed {
			continue
		}
		out = append(out, role{
			ID:       rl.ID,
			Name:     rl.Name,
			Color:    fmt.Sprintf("#%06x", rl.Color),
			Position: rl.Position,
		})
	}
	respond.OK(w, out)
}

type channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Position   int    `json:"position"`
	ParentID   string `json:"parent_id,omitempty"`
	ParentName string `json:"parent_name,omitempty"`
}

// ServeChannels handles GET /api/discord/channels: text, voice and
// category channels in display order.
func (h *Handler) ServeChannels(w http.ResponseWriter, r *http.Request) {
	if h.Platform == nil {
		respond.Error(w, h.Log, "list guild channels", errNotConnected)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Platform(), h.Log, "list guild channels")
	defer cancel()

	channels, err := h.Platform.Channels(ctx)
	if err != nil {
		respond.Error(w, h.Log, "list guild channels", apperr.External("Could not load channels from Discord.", err))
		return
	}
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}
		return channels[i].Name < channels[j].Name
	})

	names := make(map[string]string, len(channels))
	for _, ch := range channels {
		names[ch.ID] = ch.Name
	}
	out := make([]channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == platform.ChannelOther {
			continue
		}
		out = append(out, channel{
			ID:         ch.ID,
			Name:       ch.Name,
			Type:       ch.Type.String(),
			Position:   ch.Position,
			ParentID:   ch.ParentID,
			ParentName: names[ch.ParentID],
		})
	}
	respond.OK(w, out)
}
