package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type EventHandler struct {
	events   *services.EventService
	feed     *services.EventFeed
	upgrader websocket.Upgrader
}

func NewEventHandler(events *services.EventService, feed *services.EventFeed, allowedOrigins []string) *EventHandler {
	return &EventHandler{
		events: events,
		feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header (non-browser clients)
// and browser requests from an allowed origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

type EventListResponse struct {
	Success    bool                `json:"success"`
	Events     []models.Event      `json:"events"`
	Pagination services.Pagination `json:"pagination"`
}

type EventResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Event   models.Event `json:"event"`
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	var q services.ListQuery
	if err := decodeQuery(r, &q); err != nil {
		respondError(w, "fetch events", err)
		return
	}
	events, page, err := h.events.List(r.Context(), q)
	if err != nil {
		respondError(w, "fetch events", err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, EventListResponse{Success: true, Events: events, Pagination: page})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "fetch event", err)
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Success: true, Event: *ev})
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	var in services.EventInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "create event", err)
		return
	}
	ev, err := h.events.Create(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, EventResponse{Success: true, Message: "Event created successfully", Event: *ev})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	var in services.EventInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "update event", err)
		return
	}
	ev, err := h.events.Update(r.Context(), user.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Success: true, Message: "Event updated successfully", Event: *ev})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if err := h.events.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		respondError(w, "delete event", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Event deleted successfully"})
}

const (
	feedPongWait   = 60 * time.Second
	feedPingPeriod = 50 * time.Second
)

// Feed upgrades GET /ws/events and streams event changes until the client leaves.
func (h *EventHandler) Feed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	unregister := h.feed.Register(conn)
	defer unregister()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(feedPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()
	defer close(done)

	// The feed is one-way; reading only services pings and notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("event feed connection closed: %v", err)
			}
			return
		}
	}
}
