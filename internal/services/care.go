package services

import (
	"fmt"
	"strconv"

	"github.com/mamelilea/agrowtify-web/internal/models"
)

const CareFallback = "Unable to generate recommendations at this time. Please check general care guides for your plant type."

// CareRecommendation turns the current weather into care advice for plantName.
func CareRecommendation(plantName string, f *models.Forecast) string {
	if f == nil || len(f.Current.Weather) == 0 {
		return CareFallback
	}
	temp := f.Current.Temp
	humidity := f.Current.Humidity
	condition := f.Current.MainCondition()

	var rec string
	switch plantName {
	case "Rice":
		switch {
		case temp > 30:
			rec = "High temperature detected. Ensure adequate water supply. Consider increasing irrigation frequency."
		case temp < 15:
			rec = "Low temperature detected. Protect young seedlings. Delay fertilizer application until temperatures rise."
		default:
			rec = "Optimal temperature for rice growth. Maintain regular irrigation schedule and monitor for pests."
		}
		if humidity < 40 {
			rec += " Low humidity may stress the plants. Consider light irrigation to increase ambient humidity."
		}
		if condition == "Rain" {
			rec += " Rainy conditions may increase disease risk. Check for signs of fungal infections."
		}

	case "Coffee":
		switch {
		case temp > 28:
			rec = "Temperature exceeding coffee's comfort zone. Ensure shade is adequate. Water in the early morning or evening."
		case temp < 10:
			rec = "Cold stress possible. Monitor plants closely. Avoid fertilization during cold periods."
		default:
			rec = "Good temperature range for coffee plants. Maintain regular care practices."
		}
		if humidity > 80 {
			rec += " High humidity increases risk of fungal diseases. Ensure adequate spacing between plants for airflow."
		}
		if condition == "Clear" {
			rec += " Sunny conditions may require additional irrigation, especially for younger plants."
		}

	case "Corn (Maize)":
		switch {
		case temp > 32:
			rec = "High temperatures may affect pollination. Consider additional irrigation to reduce heat stress."
		case temp < 10:
			rec = "Cold stress can damage corn plants. Protect young seedlings if possible."
		default:
			rec = "Current temperature is acceptable for corn growth. Maintain regular care practices."
		}
		if humidity < 40 {
			rec += " Low humidity may affect pollination. Consider irrigation during flowering."
		}
		if condition == "Rain" {
			rec += " Monitor for water pooling which can cause root issues. Ensure fields have proper drainage."
		}

	case "Cassava":
		switch {
		case temp > 35:
			rec = "High temperatures may slow growth. Ensure plants have adequate moisture."
		case temp < 15:
			rec = "Temperatures below optimal range. Growth may slow down. Reduce watering slightly."
		default:
			rec = "Good temperature range for cassava. Continue regular maintenance."
		}
		if humidity > 85 {
			rec += " High humidity increases disease risk. Monitor for signs of root rot."
		}
		if condition == "Clear" {
			rec += " Sunny conditions are favorable for cassava. Ensure adequate but not excessive irrigation."
		}

	default:
		rec = fmt.Sprintf("Current conditions: %s°C, %d%% humidity, %s. Adjust care according to specific needs of %s.",
			strconv.FormatFloat(temp, 'f', -1, 64), humidity, condition, plantName)
	}
	return rec
}
