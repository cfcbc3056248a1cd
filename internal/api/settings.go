package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
	"github.com/erazemk/zimmet/internal/store"
)

// SettingsHandler handles preference endpoints. Effective preferences merge
// the built-in defaults, the global layer and the user's own layer.
type SettingsHandler struct {
	DB *sql.DB
}

type preferencesRequest struct {
	PageSize    *int    `json:"pageSize" validate:"omitempty,min=1,max=100"`
	DefaultSort *string `json:"defaultSort"`
	Language    *string `json:"language" validate:"omitempty,oneof=tr en"`
}

func (req preferencesRequest) preferences() (model.Preferences, error) {
	if req.DefaultSort != nil && !store.ValidAssignmentSort(*req.DefaultSort) {
		return model.Preferences{}, apperr.Validation(apperr.Field("defaultSort", "unknown sort key"))
	}
	return model.Preferences{PageSize: req.PageSize, DefaultSort: req.DefaultSort, Language: req.Language}, nil
}

func (h *SettingsHandler) effective(r *http.Request, userID int64) (model.Preferences, error) {
	global, err := store.GetPreferences(r.Context(), h.DB, store.GlobalPreferencesKey)
	if err != nil {
		return model.Preferences{}, err
	}
	user, err := store.GetPreferences(r.Context(), h.DB, store.UserPreferencesKey(userID))
	if err != nil {
		return model.Preferences{}, err
	}
	return model.MergePreferences(model.DefaultPreferences(), global, user), nil
}

// GetPreferences handles GET /api/settings/preferences.
func (h *SettingsHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.effective(r, GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, prefs)
}

// PutPreferences handles PUT /api/settings/preferences. The body replaces
// the user's layer; omitted fields fall back to the global or default value.
func (h *SettingsHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, store.UserPreferencesKey(GetClaims(r.Context()).UserID))
}

// PutGlobalPreferences handles PUT /api/settings/preferences/global.
func (h *SettingsHandler) PutGlobalPreferences(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, store.GlobalPreferencesKey)
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request, key string) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := req.preferences()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.SetPreferences(r.Context(), h.DB, key, prefs); err != nil {
		writeError(w, r, err)
		return
	}

	effective, err := h.effective(r, GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, effective)
}

// AuditHandler exposes the audit log (admin only).
type AuditHandler struct {
	DB *sql.DB
}

// List handles GET /api/audit.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, total, err := store.ListAuditEvents(r.Context(), h.DB, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, pagination.NewPage(events, p, total))
}
