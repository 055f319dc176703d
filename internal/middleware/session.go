package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/atinyakov/flowerdaily/internal/service"
	"go.uber.org/zap"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "flower_session"

const (
	loginPath   = "/login"
	adminPath   = "/admin"
	adminHome   = "/admin/flowers"
	adminPrefix = adminPath + "/"
)

type ctxKey string

const (
	userKey ctxKey = "user"
	roleKey ctxKey = "role"
)

// SessionLookup resolves a session token.
type SessionLookup interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// GateDecision applies the routing rules of the back office. It returns the
// redirect target and false when the request must be redirected, or "" and
// true when it may pass.
//
//   - an unauthenticated request for /admin or anything under /admin/ goes to /login;
//   - an authenticated request for /login goes to /admin/flowers;
//   - everything else passes.
func GateDecision(path string, authenticated bool) (string, bool) {
	switch {
	case !authenticated && (path == adminPath || strings.HasPrefix(path, adminPrefix)):
		return loginPath, false
	case authenticated && path == loginPath:
		return adminHome, false
	default:
		return "", true
	}
}

// SessionGate resolves the session cookie and enforces GateDecision.
//
// A missing cookie, an unknown or expired token and a failing lookup are all
// treated as unauthenticated; lookup failures are logged. GET and HEAD are
// redirected with 307, any other method with 303 so the target is fetched
// with GET and the original body is not replayed. On pass-through of an
// authenticated request the user ID and role are stored in the request context.
func SessionGate(lookup SessionLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *models.Session
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				s, err := lookup.Authenticate(r.Context(), c.Value)
				if err == nil {
					session = s
				} else if !errors.Is(err, service.ErrSessionNotFound) {
					logger.Warn("session lookup failed", zap.Error(err))
				}
			}

			if target, ok := GateDecision(r.URL.Path, session != nil); !ok {
				http.Redirect(w, r, target, redirectStatus(r.Method))
				return
			}

			if session != nil {
				ctx := context.WithValue(r.Context(), userKey, session.UserID)
				ctx = context.WithValue(ctx, roleKey, session.Role)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}

// RequireRole rejects with 403 any request whose context role is not one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, GetRoleFromContext(r.Context())) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

// GetRoleFromContext extracts the role of the authenticated user.
func GetRoleFromContext(ctx context.Context) models.Role {
	if r, ok := ctx.Value(roleKey).(models.Role); ok {
		return r
	}
	return ""
}
