package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type fakeSessions map[string]string

func (f fakeSessions) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "redis-down" {
		return "", false, errors.New("connection refused")
	}
	id, ok := f[token]
	return id, ok, nil
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, services.ErrNotFound
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(
		fakeSessions{"farmer-token": "u1", "admin-token": "u2", "orphan-token": "gone"},
		fakeUsers{
			"u1": {ID: "u1", Role: models.RoleUser},
			"u2": {ID: "u2", Role: models.RoleAdmin},
		},
	)
}

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"cookie", "", "from-cookie", "from-cookie"},
		{"bearer wins", "Bearer abc", "from-cookie", "abc"},
		{"basic falls back to cookie", "Basic dXNlcg==", "from-cookie", "from-cookie"},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if got := SessionToken(r); got != tt.want {
				t.Fatalf("SessionToken = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireUserAndAdmin(t *testing.T) {
	auth := newTestAuthenticator()
	var seen *models.User
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	userOnly := auth.RequireUser(ok)
	adminOnly := auth.RequireUser(auth.RequireAdmin(ok))

	tests := []struct {
		name    string
		handler http.Handler
		token   string
		status  int
	}{
		{"no token", userOnly, "", http.StatusUnauthorized},
		{"unknown token", userOnly, "nope", http.StatusUnauthorized},
		{"deleted account", userOnly, "orphan-token", http.StatusUnauthorized},
		{"store failure", userOnly, "redis-down", http.StatusInternalServerError},
		{"farmer", userOnly, "farmer-token", http.StatusNoContent},
		{"farmer on admin route", adminOnly, "farmer-token", http.StatusForbidden},
		{"admin", adminOnly, "admin-token", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, r)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && seen == nil {
				t.Fatalf("user not stored on context")
			}
		})
	}
}

func TestRequireAdminWithoutUser(t *testing.T) {
	auth := newTestAuthenticator()
	rec := httptest.NewRecorder()
	auth.RequireAdmin(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}
