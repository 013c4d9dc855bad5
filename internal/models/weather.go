package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Forecast mirrors the subset of the OpenWeather One Call payload the app uses.
type Forecast struct {
	Lat            float64         `bson:"lat" json:"lat"`
	Lon            float64         `bson:"lon" json:"lon"`
	Timezone       string          `bson:"timezone" json:"timezone"`
	TimezoneOffset int             `bson:"timezone_offset" json:"timezone_offset"`
	Current        CurrentWeather  `bson:"current" json:"current"`
	Daily          []DailyForecast `bson:"daily" json:"daily"`
}

type WeatherCondition struct {
	ID          int    `bson:"id" json:"id"`
	Main        string `bson:"main" json:"main"`
	Description string `bson:"description" json:"description"`
	Icon        string `bson:"icon" json:"icon"`
}

type CurrentWeather struct {
	Dt         int64              `bson:"dt" json:"dt"`
	Sunrise    int64              `bson:"sunrise" json:"sunrise"`
	Sunset     int64              `bson:"sunset" json:"sunset"`
	Temp       float64            `bson:"temp" json:"temp"`
	FeelsLike  float64            `bson:"feels_like" json:"feels_like"`
	Pressure   int                `bson:"pressure" json:"pressure"`
	Humidity   int                `bson:"humidity" json:"humidity"`
	DewPoint   float64            `bson:"dew_point" json:"dew_point"`
	UVI        float64            `bson:"uvi" json:"uvi"`
	Clouds     int                `bson:"clouds" json:"clouds"`
	Visibility int                `bson:"visibility" json:"visibility"`
	WindSpeed  float64            `bson:"wind_speed" json:"wind_speed"`
	WindDeg    int                `bson:"wind_deg" json:"wind_deg"`
	Weather    []WeatherCondition `bson:"weather" json:"weather"`
}

// MainCondition returns the first condition's group ("Rain", "Clear", ...), or "".
func (c CurrentWeather) MainCondition() string {
	if len(c.Weather) == 0 {
		return ""
	}
	return c.Weather[0].Main
}

type DailyTemp struct {
	Day   float64 `bson:"day" json:"day"`
	Min   float64 `bson:"min" json:"min"`
	Max   float64 `bson:"max" json:"max"`
	Night float64 `bson:"night" json:"night"`
	Eve   float64 `bson:"eve" json:"eve"`
	Morn  float64 `bson:"morn" json:"morn"`
}

type DailyFeelsLike struct {
	Day   float64 `bson:"day" json:"day"`
	Night float64 `bson:"night" json:"night"`
	Eve   float64 `bson:"eve" json:"eve"`
	Morn  float64 `bson:"morn" json:"morn"`
}

type DailyForecast struct {
	Dt        int64              `bson:"dt" json:"dt"`
	Sunrise   int64              `bson:"sunrise" json:"sunrise"`
	Sunset    int64              `bson:"sunset" json:"sunset"`
	Temp      DailyTemp          `bson:"temp" json:"temp"`
	FeelsLike DailyFeelsLike     `bson:"feels_like" json:"feels_like"`
	Pressure  int                `bson:"pressure" json:"pressure"`
	Humidity  int                `bson:"humidity" json:"humidity"`
	DewPoint  float64            `bson:"dew_point" json:"dew_point"`
	WindSpeed float64            `bson:"wind_speed" json:"wind_speed"`
	WindDeg   int                `bson:"wind_deg" json:"wind_deg"`
	Weather   []WeatherCondition `bson:"weather" json:"weather"`
	Clouds    int                `bson:"clouds" json:"clouds"`
	Pop       float64            `bson:"pop" json:"pop"`
	Rain      *float64           `bson:"rain,omitempty" json:"rain,omitempty"`
	UVI       float64            `bson:"uvi" json:"uvi"`
}

// ForecastLocation is where a forecast was requested for.
type ForecastLocation struct {
	Lat  float64 `bson:"lat" json:"lat"`
	Lon  float64 `bson:"lon" json:"lon"`
	Name string  `bson:"name" json:"name"`
}

// WeatherSnapshot records one forecast a user looked at. Stored in MongoDB.
type WeatherSnapshot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	PlantID   string             `bson:"plant_id,omitempty" json:"plantId,omitempty"`
	Location  ForecastLocation   `bson:"location" json:"location"`
	Forecast  Forecast           `bson:"forecast" json:"forecast"`
	Mocked    bool               `bson:"mocked" json:"mocked"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
