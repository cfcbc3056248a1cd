package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/audit"
	"github.com/erazemk/zimmet/internal/forms"
	"github.com/erazemk/zimmet/internal/model"
)

// FormsHandler handles signed-form uploads and downloads.
type FormsHandler struct {
	Forms *forms.Store
	Audit *audit.Recorder
}

type uploadResponse struct {
	Ref  string `json:"ref"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
}

// Upload handles POST /api/forms.
func (h *FormsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.Forms.MaxBytes()+1<<20)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.Validation(apperr.Field("file", "too large")))
			return
		}
		writeError(w, r, apperr.Validation(apperr.Field("file", "is required")))
		return
	}
	defer file.Close()

	a := actor(r)
	form, err := h.Forms.Save(r.Context(), file, a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Audit.Record(r.Context(), model.AuditEvent{
		ActorID:    a.ID,
		ActorName:  a.Name,
		Action:     model.AuditFormUploaded,
		EntityType: "form",
		Detail:     form.Ref(),
	})
	zerolog.Ctx(r.Context()).Info().Str("form", form.Name).Str("mime", form.Mime).Int64("size", form.Size).Msg("form uploaded")
	jsonResponse(w, http.StatusCreated, uploadResponse{Ref: form.Ref(), Mime: form.Mime, Size: form.Size})
}

// Get handles GET /api/forms/{name}.
func (h *FormsHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, form, err := h.Forms.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", form.Mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, form.Name, form.UploadedAt, f)
}
