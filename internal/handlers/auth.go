package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type AuthHandler struct {
	users        *services.UserService
	sessions     *services.SessionService
	secureCookie bool
}

func NewAuthHandler(users *services.UserService, sessions *services.SessionService, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, secureCookie: secureCookie}
}

type UserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

type LoginResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "register", err)
		return
	}
	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		respondError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{Success: true, Message: "Registration successful", User: user})
}

// Login handles POST /api/auth/login and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "login", err)
		return
	}
	user, err := h.users.Authenticate(r.Context(), in)
	if err != nil {
		respondError(w, "login", err)
		return
	}
	token, expiresAt, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		respondError(w, "create session", err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, expiresAt))
	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// Logout handles POST /api/auth/logout. It always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			log.Printf("failed to revoke session: %v", err)
		}
	}
	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UserResponse{Success: true, User: middleware.CurrentUser(r.Context())})
}

func (h *AuthHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(services.SessionDuration.Seconds())
	}
	return c
}
