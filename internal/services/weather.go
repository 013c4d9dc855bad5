package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mamelilea/agrowtify-web/internal/models"
)

const forecastCacheTTL = 10 * time.Minute

// WeatherService fetches One Call forecasts and falls back to a fixed mock
// forecast whenever OpenWeather is unavailable.
type WeatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *CacheService
	now     func() time.Time
}

func NewWeatherService(apiKey, baseURL string, cache *CacheService) *WeatherService {
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		now:     time.Now,
	}
}

// Forecast returns the forecast for a coordinate and whether it is mock data.
func (s *WeatherService) Forecast(ctx context.Context, lat, lon float64) (*models.Forecast, bool) {
	key := forecastCacheKey(lat, lon)
	var cached models.Forecast
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("⚠️  WARNING: forecast cache read failed: %v", err)
	} else if hit {
		return &cached, false
	}

	if s.apiKey == "" {
		log.Println("⚠️  WARNING: OPENWEATHER_API_KEY not set, using mock weather data")
		return MockForecast(lat, lon, s.now()), true
	}

	f, err := s.fetch(ctx, lat, lon)
	if err != nil {
		log.Printf("⚠️  WARNING: OpenWeather request failed, using mock weather data: %v", err)
		return MockForecast(lat, lon, s.now()), true
	}
	if err := s.cache.SetWithTTL(ctx, key, f, forecastCacheTTL); err != nil {
		log.Printf("⚠️  WARNING: forecast cache write failed: %v", err)
	}
	return f, false
}

func (s *WeatherService) fetch(ctx context.Context, lat, lon float64) (*models.Forecast, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("exclude", "minutely,hourly")
	q.Set("units", "metric")
	q.Set("appid", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	var f models.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return &f, nil
}

func forecastCacheKey(lat, lon float64) string {
	return CacheKey("weather", fmt.Sprintf("%.2f,%.2f", lat, lon))
}

type mockDay struct {
	temp      models.DailyTemp
	feelsLike models.DailyFeelsLike
	pressure  int
	humidity  int
	dewPoint  float64
	windSpeed float64
	windDeg   int
	cond      models.WeatherCondition
	clouds    int
	pop       float64
	rain      float64
	uvi       float64
}

var (
	condScattered = models.WeatherCondition{ID: 801, Main: "Clouds", Description: "awan tersebar", Icon: "02d"}
	condBroken    = models.WeatherCondition{ID: 802, Main: "Clouds", Description: "awan berarak", Icon: "03d"}
	condClear     = models.WeatherCondition{ID: 800, Main: "Clear", Description: "cerah", Icon: "01d"}
	condLightRain = models.WeatherCondition{ID: 500, Main: "Rain", Description: "hujan ringan", Icon: "10d"}
	condRain      = models.WeatherCondition{ID: 501, Main: "Rain", Description: "hujan sedang", Icon: "10d"}
)

var mockWeek = []mockDay{
	{models.DailyTemp{Day: 28.5, Min: 24.8, Max: 31.2, Night: 25.1, Eve: 27.3, Morn: 24.9}, models.DailyFeelsLike{Day: 30.2, Night: 25.7, Eve: 28.9, Morn: 25.3}, 1010, 75, 23.4, 3.2, 180, condScattered, 20, 0.2, 0, 8.5},
	{models.DailyTemp{Day: 29.1, Min: 24.5, Max: 31.8, Night: 25.3, Eve: 28.1, Morn: 24.7}, models.DailyFeelsLike{Day: 31.0, Night: 25.9, Eve: 29.5, Morn: 25.1}, 1011, 70, 22.8, 2.8, 175, condClear, 5, 0.1, 0, 9.0},
	{models.DailyTemp{Day: 27.8, Min: 24.2, Max: 30.4, Night: 24.8, Eve: 26.9, Morn: 24.3}, models.DailyFeelsLike{Day: 29.5, Night: 25.3, Eve: 28.2, Morn: 24.8}, 1012, 78, 23.6, 3.5, 190, condBroken, 30, 0.3, 0, 8.0},
	{models.DailyTemp{Day: 26.5, Min: 23.9, Max: 28.7, Night: 24.2, Eve: 25.8, Morn: 24.0}, models.DailyFeelsLike{Day: 26.5, Night: 24.7, Eve: 26.2, Morn: 24.5}, 1013, 82, 23.2, 3.8, 200, condLightRain, 60, 0.6, 2.5, 7.5},
	{models.DailyTemp{Day: 27.2, Min: 23.8, Max: 29.5, Night: 24.5, Eve: 26.3, Morn: 23.9}, models.DailyFeelsLike{Day: 28.8, Night: 25.0, Eve: 27.5, Morn: 24.3}, 1014, 79, 23.0, 3.0, 185, condRain, 70, 0.7, 5.2, 7.0},
	{models.DailyTemp{Day: 28.0, Min: 24.2, Max: 30.1, Night: 24.9, Eve: 27.0, Morn: 24.3}, models.DailyFeelsLike{Day: 29.7, Night: 25.4, Eve: 28.5, Morn: 24.8}, 1012, 76, 23.3, 2.5, 175, condBroken, 35, 0.3, 0, 8.2},
	{models.DailyTemp{Day: 28.8, Min: 24.5, Max: 31.3, Night: 25.2, Eve: 27.8, Morn: 24.6}, models.DailyFeelsLike{Day: 30.5, Night: 25.7, Eve: 29.3, Morn: 25.0}, 1011, 72, 23.0, 2.8, 180, condClear, 10, 0.1, 0, 8.8},
}

// MockForecast builds a seven-day Asia/Jakarta forecast anchored at now.
func MockForecast(lat, lon float64, now time.Time) *models.Forecast {
	dt := now.Unix()
	const halfDay = 21600
	f := &models.Forecast{
		Lat:            lat,
		Lon:            lon,
		Timezone:       "Asia/Jakarta",
		TimezoneOffset: 25200,
		Current: models.CurrentWeather{
			Dt:         dt,
			Sunrise:    dt - halfDay,
			Sunset:     dt + halfDay,
			Temp:       28.5,
			FeelsLike:  30.2,
			Pressure:   1010,
			Humidity:   75,
			DewPoint:   23.4,
			UVI:        8.5,
			Clouds:     20,
			Visibility: 10000,
			WindSpeed:  3.2,
			WindDeg:    180,
			Weather:    []models.WeatherCondition{condScattered},
		},
		Daily: make([]models.DailyForecast, 0, len(mockWeek)),
	}
	for i, d := range mockWeek {
		day := dt + int64(i)*86400
		df := models.DailyForecast{
			Dt:        day,
			Sunrise:   day - halfDay,
			Sunset:    day + halfDay,
			Temp:      d.temp,
			FeelsLike: d.feelsLike,
			Pressure:  d.pressure,
			Humidity:  d.humidity,
			DewPoint:  d.dewPoint,
			WindSpeed: d.windSpeed,
			WindDeg:   d.windDeg,
			Weather:   []models.WeatherCondition{d.cond},
			Clouds:    d.clouds,
			Pop:       d.pop,
			UVI:       d.uvi,
		}
		if d.rain > 0 {
			rain := d.rain
			df.Rain = &rain
		}
		f.Daily = append(f.Daily, df)
	}
	return f
}
