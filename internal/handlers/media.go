package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

// MediaPinger is satisfied by *services.CloudinaryService.
type MediaPinger interface {
	Ping(ctx context.Context) (string, error)
}

type MediaHandler struct {
	host MediaPinger
}

// NewMediaHandler wires the handler; host is nil when Cloudinary is not configured.
func NewMediaHandler(host MediaPinger) *MediaHandler {
	return &MediaHandler{host: host}
}

type MediaPingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Ping handles GET /api/media/ping.
func (h *MediaHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if h.host == nil {
		writeJSON(w, http.StatusServiceUnavailable, MediaPingResponse{Success: false, Message: "Cloudinary is not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := h.host.Ping(ctx)
	if err != nil {
		log.Printf("cloudinary ping failed: %v", err)
		writeJSON(w, http.StatusBadGateway, MediaPingResponse{Success: false, Message: "Cloudinary connection failed"})
		return
	}
	writeJSON(w, http.StatusOK, MediaPingResponse{Success: true, Message: "Cloudinary connection successful", Status: status})
}
