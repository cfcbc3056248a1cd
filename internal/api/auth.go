package api

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/auth"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB     *sql.DB
	Issuer *auth.Issuer
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	Role      string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, r, apperr.CodeUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		zerolog.Ctx(r.Context()).Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("login failed")
		jsonError(w, r, apperr.CodeUnauthorized, "invalid credentials")
		return
	}

	token, claims, err := h.Issuer.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user", user.Username).Str("role", user.Role).Msg("user logged in")
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Unix(), Role: user.Role})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, r, apperr.CodeUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Msg("user logged out")
	jsonResponse(w, http.StatusOK, message("logged out"))
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, r, apperr.CodeUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, r, apperr.Validation(apperr.Field("newPassword", err.Error())))
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, r, apperr.CodeUnauthorized, "not authenticated")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, r, apperr.CodeUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, string(hash)); err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Msg("user changed own password")
	jsonResponse(w, http.StatusOK, message("password updated"))
}
