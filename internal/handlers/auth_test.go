package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mamelilea/agrowtify-web/internal/middleware"
)

func newAuthRouter(app *testApp) http.Handler {
	h := NewAuthHandler(app.users, app.sessions, false)
	r := chi.NewRouter()
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(app.auth.RequireUser)
		r.Get("/api/auth/me", h.Me)
	})
	return r
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	router := newAuthRouter(app)

	post := func(path string, body interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	creds := map[string]string{"name": "Wayan", "email": "wayan@example.com", "password": "subak-bali-1"}
	if rec := post("/api/auth/register", creds); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := post("/api/auth/register", creds); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}
	if rec := post("/api/auth/register", map[string]string{"email": "bad", "password": "subak-bali-1"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email status = %d", rec.Code)
	}

	if rec := post("/api/auth/login", map[string]string{"email": "wayan@example.com", "password": "wrong-password"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}
	rec := post("/api/auth/login", map[string]string{"email": "wayan@example.com", "password": "subak-bali-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login LoginResponse
	decodeBody(t, rec.Body, &login)
	if login.Token == "" || login.User == nil || login.User.Email != "wayan@example.com" {
		t.Fatalf("unexpected login response %+v", login)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != login.Token || !cookie.HttpOnly {
		t.Fatalf("session cookie not set correctly: %+v", cookie)
	}

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
	var meResp UserResponse
	decodeBody(t, me.Body, &meResp)
	if meResp.User == nil || meResp.User.ID != login.User.ID {
		t.Fatalf("unexpected me response %+v", meResp)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("logout status = %d", out.Code)
	}
	cleared := false
	for _, c := range out.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout did not clear the cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	after := httptest.NewRecorder()
	router.ServeHTTP(after, req)
	if after.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", after.Code)
	}
}
