package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type stubForecaster struct {
	forecast *models.Forecast
	mocked   bool
}

func (s stubForecaster) Forecast(ctx context.Context, lat, lon float64) (*models.Forecast, bool) {
	f := *s.forecast
	f.Lat, f.Lon = lat, lon
	return &f, s.mocked
}

type memoryForecastLog struct {
	mu    sync.Mutex
	snaps []models.WeatherSnapshot
	err   error
}

func (l *memoryForecastLog) Record(ctx context.Context, snap models.WeatherSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.snaps = append(l.snaps, snap)
	return nil
}

func (l *memoryForecastLog) List(ctx context.Context, userID string, limit int64) ([]models.WeatherSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.WeatherSnapshot
	for _, s := range l.snaps {
		if s.UserID == userID && int64(len(out)) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func newWeatherRouter(t *testing.T, history services.ForecastLog) (*testApp, http.Handler, string, *services.PlantService) {
	t.Helper()
	app := newTestApp(t)
	plants := services.NewPlantService(app.db, nil)
	if err := plants.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed plants: %v", err)
	}
	forecast := services.MockForecast(0, 0, testNow)
	h := NewWeatherHandler(stubForecaster{forecast: forecast, mocked: true}, plants, history)
	_, token := app.login(t, "cuaca@example.com", models.RoleUser)
	router := app.userRouter(func(r chi.Router) {
		r.Get("/api/agrocare/weather", h.Forecast)
		r.Post("/api/agrocare/weather", h.Recommend)
		r.Get("/api/agrocare/weather/history", h.History)
	})
	return app, router, token, plants
}

func authed(method, path, token string, body *strings.Reader) *http.Request {
	if body == nil {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestWeatherForecastWithPlant(t *testing.T) {
	history := &memoryForecastLog{}
	_, router, token, plants := newWeatherRouter(t, history)
	list, err := plants.List(context.Background())
	if err != nil {
		t.Fatalf("plants: %v", err)
	}
	var rice models.Plant
	for _, p := range list {
		if p.Name == "Rice" {
			rice = p
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodGet, "/api/agrocare/weather?lat=-6.2&lon=106.8&plantId="+rice.ID, token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp WeatherResponse
	decodeBody(t, rec.Body, &resp)
	if !resp.Mocked || resp.Plant == nil || resp.Plant.Name != "Rice" || resp.CareRecommendations == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !strings.Contains(*resp.CareRecommendations, "Rice") {
		t.Fatalf("recommendation = %q", *resp.CareRecommendations)
	}
	if len(history.snaps) != 1 || history.snaps[0].PlantID != rice.ID || history.snaps[0].Location.Name != "Asia/Jakarta" {
		t.Fatalf("snapshot not recorded: %+v", history.snaps)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodGet, "/api/agrocare/weather/history?limit=5", token, nil))
	var hist HistoryResponse
	decodeBody(t, rec.Body, &hist)
	if rec.Code != http.StatusOK || len(hist.Forecasts) != 1 {
		t.Fatalf("history = %d %+v", rec.Code, hist)
	}
}

func TestWeatherForecastEdgeCases(t *testing.T) {
	history := &memoryForecastLog{err: errors.New("mongo down")}
	_, router, token, _ := newWeatherRouter(t, history)

	for _, q := range []string{"", "?lat=-6.2", "?lat=abc&lon=1", "?lat=0&lon=0"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authed(http.MethodGet, "/api/agrocare/weather"+q, token, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d", q, rec.Code)
		}
	}

	// Unknown plants and a failing history store do not fail the request.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodGet, "/api/agrocare/weather?lat=1&lon=2&plantId="+models.NewID(), token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp WeatherResponse
	decodeBody(t, rec.Body, &resp)
	if resp.Plant != nil || resp.CareRecommendations != nil {
		t.Fatalf("unexpected plant data %+v", resp)
	}
}

func TestWeatherRecommend(t *testing.T) {
	_, router, token, _ := newWeatherRouter(t, nil)

	body := `{"weatherData":{"current":{"temp":33,"humidity":50,"weather":[{"main":"Clear"}]},"hourly":[]},"plantName":"Soybean"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodPost, "/api/agrocare/weather", token, strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp RecommendationResponse
	decodeBody(t, rec.Body, &resp)
	want := "Current conditions: 33°C, 50% humidity, Clear. Adjust care according to specific needs of Soybean."
	if resp.Recommendations != want {
		t.Fatalf("recommendations = %q", resp.Recommendations)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodPost, "/api/agrocare/weather", token, strings.NewReader(`{"plantName":"Rice"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing weather data status = %d", rec.Code)
	}

	oversized := `{"plantName":"Rice","weatherData":{"current":{"temp":30,"humidity":70,"weather":[{"main":"Rain"}]},"minutely":"` +
		strings.Repeat("x", maxJSONBody) + `"}}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodPost, "/api/agrocare/weather", token, strings.NewReader(oversized)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized body status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(http.MethodGet, "/api/agrocare/weather/history", token, nil))
	var hist HistoryResponse
	decodeBody(t, rec.Body, &hist)
	if rec.Code != http.StatusOK || hist.Forecasts == nil || len(hist.Forecasts) != 0 {
		t.Fatalf("history without store = %d %+v", rec.Code, hist)
	}
}
