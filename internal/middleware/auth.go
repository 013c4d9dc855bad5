package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "auth-token"

type contextKey string

const userContextKey contextKey = "user"

// SessionValidator resolves a token to a user id.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (string, bool, error)
}

// UserLookup loads the account behind a session.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Authenticator struct {
	sessions SessionValidator
	users    UserLookup
}

func NewAuthenticator(sessions SessionValidator, users UserLookup) *Authenticator {
	return &Authenticator{sessions: sessions, users: users}
}

// SessionToken reads the token from "Authorization: Bearer", then the auth-token cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if t := strings.TrimSpace(parts[1]); t != "" {
				return t
			}
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Resolve returns the user behind the request's session, or nil.
func (a *Authenticator) Resolve(r *http.Request) (*models.User, error) {
	token := SessionToken(r)
	if token == "" {
		return nil, nil
	}
	userID, ok, err := a.sessions.Validate(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	user, err := a.users.GetByID(r.Context(), userID)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// RequireUser answers 401 unless the request carries a live session.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Resolve(r)
		if err != nil {
			log.Printf("session lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to verify session")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin answers 403 for non-admins. Use after RequireUser.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Unauthorized. Admin access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser returns the user RequireUser stored on the context, or nil.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
