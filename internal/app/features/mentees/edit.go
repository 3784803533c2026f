// internal/app/features/mentees/edit.go
package mentees

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/devweekends/clanverify/internal/app/admin"
	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/limits"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type menteeRequest struct {
	FullName     *string `json:"full_name"`
	Email        *string `json:"email"`
	AssignedClan *string `json:"assigned_clan"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HandleCreate handles POST /api/mentees.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body menteeRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "create mentee", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create mentee")
	defer cancel()

	m, err := h.Admin.CreateMentee(ctx, adminauth.Actor(r), admin.MenteeInput{
		FullName:     deref(body.FullName),
		Email:        deref(body.Email),
		AssignedClan: deref(body.AssignedClan),
	})
	if err != nil {
		respond.Error(w, h.Log, "create mentee", err)
		return
	}
	respond.Created(w, m)
}

// HandleUpdate handles PUT /api/mentees/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "update mentee", err)
		return
	}
	var body menteeRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "update mentee", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update mentee")
	defer cancel()

	m, err := h.Admin.UpdateMentee(ctx, adminauth.Actor(r), id, menteestore.Update{
		FullName:     body.FullName,
		Email:        body.Email,
		AssignedClan: body.AssignedClan,
	})
	if err != nil {
		respond.Error(w, h.Log, "update mentee", err)
		return
	}
	respond.OK(w, m)
}

// HandleDelete handles DELETE /api/mentees/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "delete mentee", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete mentee")
	defer cancel()

	if err := h.Admin.DeleteMentee(ctx, adminauth.Actor(r), id); err != nil {
		respond.Error(w, h.Log, "delete mentee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type countResponse struct {
	Deleted int64 `json:"deleted"`
}

// HandleBulkDelete handles POST /api/mentees/bulk-delete.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var body bulkDeleteRequest
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, "bulk delete mentees", err)
		return
	}
	if len(body.IDs) > limits.MaxBulkIDs {
		respond.Error(w, h.Log, "bulk delete mentees",
			apperr.Validation(fmt.Sprintf("At most %d ids per request.", limits.MaxBulkIDs)))
		return
	}
	ids := make([]primitive.ObjectID, 0, len(body.IDs))
	for _, hex := range body.IDs {
		oid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			respond.Error(w, h.Log, "bulk delete mentees", apperr.Validation("Invalid mentee id: "+hex))
			return
		}
		ids = append(ids, oid)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "bulk delete mentees")
	defer cancel()

	n, err := h.Admin.BulkDeleteMentees(ctx, adminauth.Actor(r), ids)
	if err != nil {
		respond.Error(w, h.Log, "bulk delete mentees", err)
		return
	}
	respond.OK(w, countResponse{Deleted: n})
}

// HandleClear handles DELETE /api/mentees?confirm=true. It removes every
// mentee and verification request.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !ok {
		respond.Error(w, h.Log, "clear mentees", apperr.Validation("Add confirm=true to delete every mentee."))
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "clear mentees")
	defer cancel()

	n, err := h.Admin.ClearMentees(ctx, adminauth.Actor(r))
	if err != nil {
		respond.Error(w, h.Log, "clear mentees", err)
		return
	}
	respond.OK(w, countResponse{Deleted: n})
}

// HandleUnlink handles POST /api/mentees/{id}/unlink.
func (h *Handler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, "unlink mentee", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "unlink mentee")
	defer cancel()

	res, err := h.Admin.UnlinkMentee(ctx, adminauth.Actor(r), id)
	if err != nil {
		respond.Error(w, h.Log, "unlink mentee", err)
		return
	}
	respond.OK(w, res)
}
