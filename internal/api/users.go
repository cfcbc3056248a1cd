package api

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin manager user"`
}

type updateUserRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager user"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *UsersHandler) load(r *http.Request) (*model.User, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, apperr.NotFound("user", id)
	}
	return user, nil
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		writeError(w, r, apperr.Validation(apperr.Field("password", err.Error())))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, string(hash), req.Role)
	if err != nil {
		if store.IsUniqueViolation(err) {
			err = apperr.Conflict("username already exists")
		}
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("new_user", req.Username).Str("role", req.Role).Msg("user created")
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, user.ID, req.Role); err != nil {
		writeError(w, r, err)
		return
	}
	user.Role = req.Role

	zerolog.Ctx(r.Context()).Info().Str("target_user", user.Username).Str("new_role", req.Role).Msg("user role updated")
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		writeError(w, r, apperr.Validation(apperr.Field("password", err.Error())))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, string(hash)); err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("target_user", user.Username).Msg("user password reset")
	jsonResponse(w, http.StatusOK, message("password reset"))
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	if claims != nil && claims.UserID == user.ID {
		writeError(w, r, apperr.Validation(apperr.Field("id", "cannot delete yourself")))
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, user.ID); err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("deleted_user", user.Username).Msg("user deleted")
	jsonResponse(w, http.StatusOK, message("user deleted"))
}
