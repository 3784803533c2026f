// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/paging"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
)

type listResponse struct {
	Entries []models.ActivityLog `json:"entries"`
	Last24h int64                `json:"last_24h"`
}

// ServeList handles GET /api/activity?action=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	action := strings.ToUpper(query.Get(r, "action"))
	if action != "" && !auditlog.IsAction(action) {
		respond.Error(w, h.Log, "activity log list", apperr.Validation("Unknown action filter."))
		return
	}
	limit := paging.ParseLimit(r, paging.PageSize)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity log list")
	defer cancel()

	entries, err := h.Activity.Recent(ctx, action, int64(limit))
	if err != nil {
		respond.Error(w, h.Log, "activity log list", err)
		return
	}
	n, err := h.Activity.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		respond.Error(w, h.Log, "activity log list", err)
		return
	}
	respond.OK(w, listResponse{Entries: entries, Last24h: n})
}
