package api

import (
	"net/http"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/service"
)

// PersonnelHandler handles personnel endpoints.
type PersonnelHandler struct {
	Personnel *service.Personnel
}

type personnelRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Department string `json:"department" validate:"max=100"`
	RegistryNo string `json:"registryNo" validate:"max=50"`
}

func (req personnelRequest) personnel() model.Personnel {
	return model.Personnel{Name: req.Name, Department: req.Department, RegistryNo: req.RegistryNo}
}

// List handles GET /api/personnel.
func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Personnel.List(r.Context(), r.URL.Query().Get("q"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Create handles POST /api/personnel.
func (h *PersonnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personnelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Personnel.Create(r.Context(), req.personnel(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/personnel/{id}.
func (h *PersonnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Personnel.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PUT /api/personnel/{id}.
func (h *PersonnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req personnelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p := req.personnel()
	p.ID = id
	updated, err := h.Personnel.Update(r.Context(), p, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/personnel/{id}.
func (h *PersonnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Personnel.Delete(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, message("personnel deleted"))
}
