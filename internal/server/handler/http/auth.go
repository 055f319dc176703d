// Package http provides the HTTP handlers and routing of the flower server.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atinyakov/flowerdaily/internal/middleware"
	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/atinyakov/flowerdaily/internal/service"
)

// AuthService defines the login operations required by the AuthHandler.
type AuthService interface {
	// Login checks the credentials and returns a new session token.
	Login(ctx context.Context, username, password string) (string, models.Session, error)
	// Logout deletes the session of the token.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles login and logout of back-office users.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool
}

// LoginRequest represents the JSON payload of a login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginForm answers GET /login with a short usage hint.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "POST username and password to /login",
	})
}

// Login handles POST /login. On success it sets the session cookie and
// returns the role and expiry of the session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, session, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, h.cookie(token, int(service.SessionTTL/time.Second)))
	writeJSON(w, http.StatusOK, map[string]any{
		"role":      session.Role,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout handles POST /logout. It is idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil && c.Value != "" {
		if err := h.AuthService.Logout(r.Context(), c.Value); err != nil {
			writeError(w, err)
			return
		}
	}
	http.SetCookie(w, h.cookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
