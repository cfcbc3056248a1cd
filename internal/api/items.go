package api

import (
	"net/http"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/service"
	"github.com/erazemk/zimmet/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Items *service.Items
}

type itemRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Category     string `json:"category" validate:"max=100"`
	Brand        string `json:"brand" validate:"max=100"`
	Model        string `json:"model" validate:"max=100"`
	SerialNumber string `json:"serialNumber" validate:"max=100"`
	AssetTag     string `json:"assetTag" validate:"required,max=100"`
}

func (req itemRequest) item() model.Item {
	return model.Item{
		Name:         req.Name,
		Category:     req.Category,
		Brand:        req.Brand,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		AssetTag:     req.AssetTag,
	}
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Items.List(r.Context(), store.ItemFilter{Query: q.Get("q"), Category: q.Get("category")}, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.Items.Create(r.Context(), req.item(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.Items.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item := req.item()
	item.ID = id
	updated, err := h.Items.Update(r.Context(), item, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Items.Delete(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, message("item deleted"))
}
