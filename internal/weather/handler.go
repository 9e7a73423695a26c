package weather

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves GET /api/appointment-weather.
type Handler struct {
	forecaster   Forecaster
	thresholdPct float64
	logger       *logging.Logger
}

// NewHandler creates a weather handler.
func NewHandler(forecaster Forecaster, thresholdPct float64, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{forecaster: forecaster, thresholdPct: thresholdPct, logger: logger}
}

// Response is the envelope for the appointment-weather endpoint.
type Response struct {
	Success          bool            `json:"success"`
	WeatherRiskLevel RiskLevel       `json:"weatherRiskLevel,omitempty"`
	ForecastData     []ForecastPoint `json:"forecastData,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// AppointmentWeather handles GET /api/appointment-weather?latitude&longitude&date.
func (h *Handler) AppointmentWeather(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	date := r.URL.Query().Get("date")
	if latErr != nil || lngErr != nil || date == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "latitude, longitude and date are required"})
		return
	}

	forecast, err := h.forecaster.Forecast(r.Context(), lat, lng, date)
	if err != nil {
		h.logger.Error("forecast lookup failed", "error", err, "date", date)
		writeJSON(w, http.StatusBadGateway, Response{Success: false, Error: "forecast unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success:          true,
		WeatherRiskLevel: AssessRisk(forecast, h.thresholdPct),
		ForecastData:     forecast.Points,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
