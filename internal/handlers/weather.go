package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

// Forecaster is satisfied by *services.WeatherService.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64) (*models.Forecast, bool)
}

type WeatherHandler struct {
	weather Forecaster
	plants  *services.PlantService
	history services.ForecastLog
}

// NewWeatherHandler wires the handler; history may be nil when MongoDB is not configured.
func NewWeatherHandler(weather Forecaster, plants *services.PlantService, history services.ForecastLog) *WeatherHandler {
	return &WeatherHandler{weather: weather, plants: plants, history: history}
}

type weatherQuery struct {
	Lat     float64 `schema:"lat"`
	Lon     float64 `schema:"lon"`
	PlantID string  `schema:"plantId"`
}

type WeatherResponse struct {
	Success             bool             `json:"success"`
	Forecast            *models.Forecast `json:"forecast"`
	Mocked              bool             `json:"mocked"`
	Plant               *models.Plant    `json:"plant"`
	CareRecommendations *string          `json:"careRecommendations"`
}

type RecommendationRequest struct {
	WeatherData *models.Forecast `json:"weatherData"`
	PlantName   string           `json:"plantName"`
}

type RecommendationResponse struct {
	Success         bool   `json:"success"`
	Recommendations string `json:"recommendations"`
}

type HistoryResponse struct {
	Success   bool                     `json:"success"`
	Forecasts []models.WeatherSnapshot `json:"forecasts"`
}

// Forecast handles GET /api/agrocare/weather.
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var q weatherQuery
	if err := decodeQuery(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}
	if q.Lat == 0 || q.Lon == 0 {
		writeError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}

	forecast, mocked := h.weather.Forecast(r.Context(), q.Lat, q.Lon)
	resp := WeatherResponse{Success: true, Forecast: forecast, Mocked: mocked}

	if q.PlantID != "" {
		plant, err := h.plants.Get(r.Context(), q.PlantID)
		switch {
		case err == nil:
			advice := services.CareRecommendation(plant.Name, forecast)
			resp.Plant = plant
			resp.CareRecommendations = &advice
		case !errors.Is(err, services.ErrNotFound):
			respondError(w, "process weather request", err)
			return
		}
	}

	h.record(r.Context(), user.ID, q, forecast, mocked)
	writeJSON(w, http.StatusOK, resp)
}

func (h *WeatherHandler) record(ctx context.Context, userID string, q weatherQuery, f *models.Forecast, mocked bool) {
	if h.history == nil {
		return
	}
	name := f.Timezone
	if name == "" {
		name = "Unknown Location"
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := h.history.Record(ctx, models.WeatherSnapshot{
		UserID:   userID,
		PlantID:  q.PlantID,
		Location: models.ForecastLocation{Lat: q.Lat, Lon: q.Lon, Name: name},
		Forecast: *f,
		Mocked:   mocked,
	})
	if err != nil {
		log.Printf("⚠️  WARNING: failed to record forecast snapshot: %v", err)
	}
}

// Recommend handles POST /api/agrocare/weather.
func (h *WeatherHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	// weatherData is a full One Call payload; fields beyond the model are ignored.
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.WeatherData == nil || req.PlantName == "" {
		respondError(w, "generate recommendations", utils.NewValidationError("weatherData", "Weather data and plant name are required"))
		return
	}
	writeJSON(w, http.StatusOK, RecommendationResponse{
		Success:         true,
		Recommendations: services.CareRecommendation(req.PlantName, req.WeatherData),
	})
}

type historyQuery struct {
	Limit int64 `schema:"limit" default:"10"`
}

// History handles GET /api/agrocare/weather/history.
func (h *WeatherHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if h.history == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Success: true, Forecasts: []models.WeatherSnapshot{}})
		return
	}
	var q historyQuery
	if err := decodeQuery(r, &q); err != nil {
		respondError(w, "load forecast history", err)
		return
	}
	snaps, err := h.history.List(r.Context(), user.ID, q.Limit)
	if err != nil {
		respondError(w, "load forecast history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Success: true, Forecasts: snaps})
}
