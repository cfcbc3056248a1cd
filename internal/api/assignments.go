package api

import (
	"net/http"

	"github.com/erazemk/zimmet/internal/assignment"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/service"
	"github.com/erazemk/zimmet/internal/store"
)

// AssignmentsHandler handles assignment endpoints and the pending workflow.
type AssignmentsHandler struct {
	Assignments *service.Assignments
}

// Field rules live in the state machine so that every violation of a
// request is reported together; tags here only bound sizes.
type createAssignmentRequest struct {
	ItemID         int64        `json:"itemId"`
	PersonnelID    int64        `json:"personnelId"`
	Status         model.Status `json:"status"`
	AssignmentDate model.Date   `json:"assignmentDate"`
	ReturnDate     model.Date   `json:"returnDate"`
	Notes          string       `json:"notes" validate:"max=2000"`
}

type itemPatchRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	Category     *string `json:"category" validate:"omitempty,max=100"`
	Brand        *string `json:"brand" validate:"omitempty,max=100"`
	Model        *string `json:"model" validate:"omitempty,max=100"`
	SerialNumber *string `json:"serialNumber" validate:"omitempty,max=100"`
	AssetTag     *string `json:"assetTag" validate:"omitempty,max=100"`
}

type updateAssignmentRequest struct {
	Version        int64             `json:"version" validate:"required"`
	PersonnelID    *int64            `json:"personnelId" validate:"omitempty,gt=0"`
	ItemID         *int64            `json:"itemId" validate:"omitempty,gt=0"`
	Status         *model.Status     `json:"status"`
	AssignmentDate *model.Date       `json:"assignmentDate"`
	ReturnDate     *model.Date       `json:"returnDate"`
	Notes          *string           `json:"notes" validate:"omitempty,max=2000"`
	SignedForm     *string           `json:"signedForm" validate:"omitempty,max=200"`
	Item           *itemPatchRequest `json:"item"`
}

func (req updateAssignmentRequest) input() service.UpdateInput {
	patch := assignment.Patch{
		PersonnelID:    req.PersonnelID,
		ItemID:         req.ItemID,
		Status:         req.Status,
		AssignmentDate: req.AssignmentDate,
		ReturnDate:     req.ReturnDate,
		Notes:          req.Notes,
		SignedForm:     req.SignedForm,
	}
	if req.Item != nil {
		patch.Item = assignment.ItemPatch{
			Name:         req.Item.Name,
			Category:     req.Item.Category,
			Brand:        req.Item.Brand,
			Model:        req.Item.Model,
			SerialNumber: req.Item.SerialNumber,
			AssetTag:     req.Item.AssetTag,
		}
	}
	return service.UpdateInput{Patch: patch, Version: req.Version}
}

type approveRequest struct {
	AssignmentIDs []int64 `json:"assignmentIds" validate:"required"`
	FormRef       string  `json:"formRef" validate:"required"`
}

type rejectRequest struct {
	AssignmentIDs []int64 `json:"assignmentIds" validate:"required"`
}

// List handles GET /api/assignments.
func (h *AssignmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	personnelID, err := queryID(r, "personnelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := queryID(r, "itemId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	f := store.AssignmentFilter{
		Status:      model.Status(q.Get("status")),
		PersonnelID: personnelID,
		ItemID:      itemID,
		Query:       q.Get("q"),
		Sort:        q.Get("sort"),
	}
	page, err := h.Assignments.List(r.Context(), f, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Create handles POST /api/assignments.
func (h *AssignmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Assignments.Create(r.Context(), service.CreateInput{
		ItemID:         req.ItemID,
		PersonnelID:    req.PersonnelID,
		Status:         req.Status,
		AssignmentDate: req.AssignmentDate,
		ReturnDate:     req.ReturnDate,
		Notes:          req.Notes,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, a)
}

// Get handles GET /api/assignments/{id}.
func (h *AssignmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.Assignments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Update handles PUT /api/assignments/{id}.
func (h *AssignmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Assignments.Update(r.Context(), id, req.input(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Delete handles DELETE /api/assignments/{id}.
func (h *AssignmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Assignments.Delete(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, message("assignment deleted"))
}

// PendingGrouped handles GET /api/assignments/pending-grouped.
func (h *AssignmentsHandler) PendingGrouped(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Assignments.PendingGrouped(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// PendingCount handles GET /api/assignments/pending-count.
func (h *AssignmentsHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Assignments.PendingCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"count": n})
}

// ApproveMultiple handles PUT /api/assignments/approve-multiple.
func (h *AssignmentsHandler) ApproveMultiple(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.Assignments.ApproveMultiple(r.Context(), req.AssignmentIDs, req.FormRef, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// RejectMultiple handles POST /api/assignments/reject-multiple.
func (h *AssignmentsHandler) RejectMultiple(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.Assignments.RejectMultiple(r.Context(), req.AssignmentIDs, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Search handles GET /api/assignments/search.
func (h *AssignmentsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	groups, err := h.Assignments.Search(r.Context(), store.SearchFilter{
		PersonnelName:    q.Get("personnelName"),
		ItemAssetTag:     q.Get("itemAssetTag"),
		ItemSerialNumber: q.Get("itemSerialNumber"),
		Status:           model.Status(q.Get("status")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []model.PersonnelGroup{}
	}
	jsonResponse(w, http.StatusOK, groups)
}
