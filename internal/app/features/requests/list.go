// internal/app/features/requests/list.go
package requests

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/csvutil"
	"github.com/devweekends/clanverify/internal/app/system/normalize"
	"github.com/devweekends/clanverify/internal/app/system/paging"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxExportRows caps the CSV export.
const maxExportRows = 50000

// item is a request with its clan name resolved.
type item struct {
	models.VerificationRequest
	ClanName string `json:"clan_name"`
}

type listResponse struct {
	Requests []item `json:"requests"`
}

func parseFilter(r *http.Request) (requeststore.Filter, error) {
	status := models.RequestStatus(normalize.Status(query.Get(r, "status")))
	if status != "" && !status.Valid() {
		return requeststore.Filter{}, apperr.Validation("Unknown status filter.")
	}
	return requeststore.Filter{Status: status}, nil
}

// withClanNames resolves the clan name of every request.
func (h *Handler) withClanNames(ctx context.Context, reqs []models.VerificationRequest) ([]item, error) {
	seen := map[primitive.ObjectID]bool{}
	ids := make([]primitive.ObjectID, 0, len(reqs))
	for _, rq := range reqs {
		if !seen[rq.ClanID] {
			seen[rq.ClanID] = true
			ids = append(ids, rq.ClanID)
		}
	}
	names, err := h.Clans.NamesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]item, 0, len(reqs))
	for _, rq := range reqs {
		out = append(out, item{VerificationRequest: rq, ClanName: names[rq.ClanID]})
	}
	return out, nil
}

// ServeList handles GET /api/requests?status=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, h.Log, "list requests", err)
		return
	}
	f.Limit = int64(paging.ParseLimit(r, paging.PageSize))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list requests")
	defer cancel()

	reqs, err := h.Requests.List(ctx, f)
	if err != nil {
		respond.Error(w, h.Log, "list requests", err)
		return
	}
	items, err := h.withClanNames(ctx, reqs)
	if err != nil {
		respond.Error(w, h.Log, "list requests", err)
		return
	}
	respond.OK(w, listResponse{Requests: items})
}

// ExportHeader is the header row of the request CSV export.
var ExportHeader = []string{"discordUsername", "email", "clanName", "status", "createdAt", "verifiedAt"}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ServeExport handles GET /api/requests/export?status=.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, h.Log, "export requests", err)
		return
	}
	f.Limit = maxExportRows

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export requests")
	defer cancel()

	reqs, err := h.Requests.List(ctx, f)
	if err != nil {
		respond.Error(w, h.Log, "export requests", err)
		return
	}
	items, err := h.withClanNames(ctx, reqs)
	if err != nil {
		respond.Error(w, h.Log, "export requests", err)
		return
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		created := it.CreatedAt
		rows = append(rows, []string{
			it.DiscordUsername,
			it.Email,
			it.ClanName,
			string(it.Status),
			formatTime(&created),
			formatTime(it.VerifiedAt),
		})
	}

	filename := fmt.Sprintf("verification_requests_%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return
	}
	if err := csvutil.Write(w, ExportHeader, rows); err != nil {
		h.Log.Warn("write request export", zap.Error(err))
	}
}
