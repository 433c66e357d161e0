// ABOUTME: HTTP handlers for registration, login, logout and the current user
// ABOUTME: Issued session tokens are returned in the x-auth response header

package api

import (
	"net/http"

	"github.com/2389/journal-gateway/internal/auth"
	"github.com/2389/journal-gateway/internal/store"
)

// CredentialsRequest is the JSON request body for POST /users.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the JSON request body for POST /users/login. Malformed
// credentials fail the same way as wrong ones, so only presence is checked.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public representation of a user. The password hash and
// token list are never serialized.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newUserResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}

// handleRegister handles POST /users.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := a.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}

	w.Header().Set(auth.HeaderAuth, token)
	a.sendJSON(w, http.StatusOK, newUserResponse(user))
}

// handleLogin handles POST /users/login.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}

	w.Header().Set(auth.HeaderAuth, token)
	a.sendJSON(w, http.StatusOK, newUserResponse(user))
}

// handleMe handles GET /users/me.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	a.sendJSON(w, http.StatusOK, newUserResponse(authCtx.Principal))
}

// handleLogout handles DELETE /users/me/token, revoking the token used for
// this request.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	if err := a.accounts.RevokeToken(r.Context(), authCtx.Principal, authCtx.Token); err != nil {
		a.sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
