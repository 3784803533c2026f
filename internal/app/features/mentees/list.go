// internal/app/features/mentees/list.go
package mentees

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/normalize"
	"github.com/devweekends/clanverify/internal/app/system/paging"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
)

type listResponse struct {
	Mentees []models.Mentee `json:"mentees"`
	Paging  paging.Info     `json:"paging"`
}

// ServeList handles GET /api/mentees?search=&status=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := models.MenteeStatus(normalize.Status(query.Get(r, "status")))
	if status != "" && !status.Valid() {
		respond.Error(w, h.Log, "list mentees", apperr.Validation("Unknown status filter."))
		return
	}
	f := menteestore.Filter{
		Search:   normalize.QueryParam(query.Get(r, "search")),
		Status:   status,
		Page:     paging.ParsePage(r),
		PageSize: paging.ParseLimit(r, paging.PageSize),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list mentees")
	defer cancel()

	items, total, err := h.Mentees.List(ctx, f)
	if err != nil {
		respond.Error(w, h.Log, "list mentees", err)
		return
	}
	respond.OK(w, listResponse{
		Mentees: items,
		Paging:  paging.NewInfo(f.Page, f.PageSize, total),
	})
}

// ServeStats handles GET /api/mentees/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mentee stats")
	defer cancel()

	st, err := h.Mentees.Stats(ctx)
	if err != nil {
		respond.Error(w, h.Log, "mentee stats", err)
		return
	}
	respond.OK(w, st)
}
