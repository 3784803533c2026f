// internal/app/features/dashboard/stats.go
package dashboard

import (
	"net/http"
	"time"

	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	metricsstore "github.com/devweekends/clanverify/internal/app/store/metrics"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	topClanLimit   = 10
	recentRequests = 5
)

type totals struct {
	Requests int64 `json:"requests"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type today struct {
	Requests int64 `json:"requests"`
	Approved int64 `json:"approved"`
}

type week struct {
	Requests int64 `json:"requests"`
}

type clanCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type recentRequest struct {
	ID              primitive.ObjectID   `json:"id"`
	DiscordUsername string               `json:"discord_username"`
	Clan            string               `json:"clan"`
	Status          models.RequestStatus `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
}

type statsResponse struct {
	Totals         totals          `json:"totals"`
	Today          today           `json:"today"`
	ThisWeek       week            `json:"this_week"`
	ApprovalRate   int             `json:"approval_rate"`
	TopClans       []clanCount     `json:"top_clans"`
	RecentRequests []recentRequest `json:"recent_requests"`
}

// ServeStats handles GET /api/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dashboard stats")
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, h.DB, h.now().In(h.Loc))

	top, err := h.Requests.TopClans(ctx, topClanLimit)
	if err != nil {
		respond.Error(w, h.Log, "dashboard stats", err)
		return
	}
	recent, err := h.Requests.List(ctx, requeststore.Filter{Limit: recentRequests})
	if err != nil {
		respond.Error(w, h.Log, "dashboard stats", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(top)+len(recent))
	for _, c := range top {
		ids = append(ids, c.ClanID)
	}
	for _, rq := range recent {
		ids = append(ids, rq.ClanID)
	}
	names, err := h.Clans.NamesByID(ctx, ids)
	if err != nil {
		respond.Error(w, h.Log, "dashboard stats", err)
		return
	}
	name := func(id primitive.ObjectID) string {
		if n, ok := names[id]; ok {
			return n
		}
		return "Unknown"
	}

	resp := statsResponse{
		Totals: totals{
			Requests: counts.Requests,
			Pending:  counts.Pending,
			Approved: counts.Approved,
			Rejected: counts.Rejected,
		},
		Today:          today{Requests: counts.RequestsToday, Approved: counts.ApprovedToday},
		ThisWeek:       week{Requests: counts.RequestsThisWeek},
		ApprovalRate:   counts.ApprovalRate(),
		TopClans:       make([]clanCount, 0, len(top)),
		RecentRequests: make([]recentRequest, 0, len(recent)),
	}
	for _, c := range top {
		resp.TopClans = append(resp.TopClans, clanCount{Name: name(c.ClanID), Count: c.Count})
	}
	for _, rq := range recent {
		resp.RecentRequests = append(resp.RecentRequests, recentRequest{
			ID:              rq.ID,
			DiscordUsername: rq.DiscordUsername,
			Clan:            name(rq.ClanID),
			Status:          rq.Status,
			CreatedAt:       rq.CreatedAt,
		})
	}

	h.Log.Debug("dashboard stats served", zap.Int64("requests", counts.Requests))
	respond.OK(w, resp)
}
