// internal/app/features/clans/clans.go
package clans

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/devweekends/clanverify/internal/app/admin"
	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	Clans []models.Clan `json:"clans"`
}

// ServeList handles GET /api/clans.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list clans")
	defer cancel()

	clans, err := h.Clans.List(ctx)
	if err != nil {
		respond.Error(w, h.Log, "list clans", err)
		return
	}
	respond.OK(w, listResponse{Clans: clans})
}

func notFound(err error) error {
	if errors.Is(err, clanstore.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "Clan not found.", err)
	}
	return err
}

// ServeGet handles GET /api/clans/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "get clan", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get clan")
	defer cancel()

	c, err := h.Clans.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, "get clan", notFound(err))
		return
	}
	respond.OK(w, c)
}

// ServeBySlug handles GET /api/clans/slug/{slug}.
func (h *Handler) ServeBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get clan by slug")
	defer cancel()

	c, err := h.Clans.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		respond.Error(w, h.Log, "get clan by slug", notFound(err))
		return
	}
	respond.OK(w, c)
}

type clanRequest struct {
	Name    *string `json:"name"`
	RoleID  *string `json:"role_id"`
	Enabled *bool   `json:"enabled"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HandleCreate handles POST /api/clans.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body clanRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "create clan", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create clan")
	defer cancel()

	c, err := h.Admin.CreateClan(ctx, adminauth.Actor(r), admin.ClanInput{
		Name:    deref(body.Name),
		RoleID:  deref(body.RoleID),
		Enabled: body.Enabled,
	})
	if err != nil {
		respond.Error(w, h.Log, "create clan", err)
		return
	}
	respond.Created(w, c)
}

// HandleUpdate handles PUT /api/clans/{id}. A rename is cascaded to the
// mentees labelled with the old name.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "update clan", err)
		return
	}
	var body clanRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "update clan", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update clan")
	defer cancel()

	c, err := h.Admin.UpdateClan(ctx, adminauth.Actor(r), id, clanstore.Update{
		Name:    body.Name,
		RoleID:  body.RoleID,
		Enabled: body.Enabled,
	})
	if err != nil {
		respond.Error(w, h.Log, "update clan", err)
		return
	}
	respond.OK(w, c)
}

// HandleDelete handles DELETE /api/clans/{id}?deleteRole=true.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "delete clan", err)
		return
	}
	deleteRole, _ := strconv.ParseBool(r.URL.Query().Get("deleteRole"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete clan")
	defer cancel()

	if err := h.Admin.DeleteClan(ctx, adminauth.Actor(r), id, deleteRole); err != nil {
		respond.Error(w, h.Log, "delete clan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mergeRequest struct {
	TargetID string `json:"target_id"`
}

// HandleMerge handles POST /api/clans/{id}/merge.
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	source, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "merge clans", err)
		return
	}
	var body mergeRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "merge clans", err)
		return
	}
	target, err := primitive.ObjectIDFromHex(body.TargetID)
	if err != nil {
		respond.Error(w, h.Log, "merge clans", apperr.Validation("Invalid target clan id."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "merge clans")
	defer cancel()

	res, err := h.Admin.MergeClans(ctx, adminauth.Actor(r), source, target)
	if err != nil {
		respond.Error(w, h.Log, "merge clans", err)
		return
	}
	respond.OK(w, res)
}
