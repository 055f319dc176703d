package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/go-chi/chi/v5"
)

// UserService defines the account operations required by the UserHandler.
type UserService interface {
	Create(ctx context.Context, username, password string, role models.Role) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id, password string) error
}

// UserHandler manages back-office accounts.
type UserHandler struct {
	Users UserService
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// List handles GET /admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	u, err := h.Users.Create(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Delete handles DELETE /admin/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword handles PUT /admin/users/{id}/password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.Users.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
