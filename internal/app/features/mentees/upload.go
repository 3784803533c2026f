// internal/app/features/mentees/upload.go
package mentees

import (
	"errors"
	"net/http"

	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/csvutil"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
)

// HandleUpload handles POST /api/mentees/upload, a multipart form with the
// roll CSV in field "file".
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		msg := "CSV file is required."
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "CSV file is too large. Maximum size is 5 MB."
		}
		respond.Error(w, h.Log, "upload mentees", apperr.Validation(msg))
		return
	}
	defer file.Close()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "upload mentees")
	defer cancel()

	res, err := h.Admin.ImportMentees(ctx, adminauth.Actor(r), hdr.Filename, file)
	if err != nil {
		respond.Error(w, h.Log, "upload mentees", err)
		return
	}
	respond.OK(w, res)
}
