package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

func TestEventFeedWebSocket(t *testing.T) {
	app := newTestApp(t)
	feed := services.NewEventFeed(nil)
	events := services.NewEventService(app.db, feed)
	cat, err := services.NewContentService(app.db).CreateCategory(context.Background(), services.CategoryInput{Name: "Pelatihan"})
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	_, token := app.login(t, "penyuluh@example.com", models.RoleUser)

	h := NewEventHandler(events, feed, []string{"https://agrowtify.example"})
	r := chi.NewRouter()
	r.Get("/ws/events", h.Feed)
	r.Get("/api/events", h.List)
	r.Group(func(r chi.Router) {
		r.Use(app.auth.RequireUser)
		r.Post("/api/events", h.Create)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"

	// A foreign origin is refused during the handshake.
	hdr := http.Header{"Origin": []string{"https://evil.example"}}
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, hdr); err == nil {
		t.Fatalf("expected handshake from foreign origin to fail")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign origin status = %d", resp.StatusCode)
	}

	hdr = http.Header{"Origin": []string{"https://agrowtify.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for feed.ConnectionCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connection never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	body := jsonBody(t, map[string]interface{}{
		"title":       "Sekolah lapang",
		"description": "Praktik pengendalian hama terpadu",
		"eventType":   "HYBRID",
		"startDate":   start,
		"endDate":     start.Add(4 * time.Hour),
		"organizer":   "BPP Cianjur",
		"categoryId":  cat.ID,
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/events", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created EventResponse
	decodeBody(t, resp.Body, &created)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg services.FeedMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if msg.Type != services.FeedEventCreated || msg.EventID != created.Event.ID || msg.Event == nil {
		t.Fatalf("unexpected feed message %+v", msg)
	}

	list, err := http.Get(srv.URL + "/api/events?type=hybrid")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer list.Body.Close()
	var listed EventListResponse
	decodeBody(t, list.Body, &listed)
	if len(listed.Events) != 1 || listed.Pagination.Total != 1 {
		t.Fatalf("unexpected list %+v", listed)
	}
}
