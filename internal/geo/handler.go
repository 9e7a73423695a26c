package geo

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves the geocode and distance-check endpoints.
type Handler struct {
	geocoder Geocoder
	area     *AreaChecker
	logger   *logging.Logger
}

// NewHandler creates a geo handler.
func NewHandler(geocoder Geocoder, area *AreaChecker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{geocoder: geocoder, area: area, logger: logger}
}

// GeocodeResponse is the envelope for GET /api/geocode.
type GeocodeResponse struct {
	Success          bool     `json:"success"`
	Location         Location `json:"location"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// Geocode handles GET /api/geocode?address=.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, GeocodeResponse{Success: false, Error: "address is required"})
		return
	}

	res, err := h.geocoder.Geocode(r.Context(), address)
	if errors.Is(err, ErrNoResults) {
		writeJSON(w, http.StatusOK, GeocodeResponse{Success: false, Error: "address not found"})
		return
	}
	if err != nil {
		h.logger.Error("geocode failed", "error", err)
		writeJSON(w, http.StatusBadGateway, GeocodeResponse{Success: false, Error: "geocoding unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, GeocodeResponse{
		Success:          true,
		Location:         res.Location,
		FormattedAddress: res.FormattedAddress,
	})
}

// DistanceCheckResponse is the envelope for GET /api/distance-check.
type DistanceCheckResponse struct {
	Success          bool           `json:"success"`
	IsInServiceArea  bool           `json:"isInServiceArea"`
	IsExtendedArea   bool           `json:"isExtendedArea"`
	Classification   Classification `json:"classification"`
	FormattedAddress string         `json:"formattedAddress,omitempty"`
	Distance         *TextValue     `json:"distance,omitempty"`
	DriveTime        *TextValue     `json:"driveTime,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// TextValue mirrors the display-string shape the booking client renders.
type TextValue struct {
	Text string `json:"text"`
}

// DistanceCheck handles GET /api/distance-check?address=.
func (h *Handler) DistanceCheck(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, DistanceCheckResponse{Success: false, Error: "address is required"})
		return
	}

	res, err := h.area.Check(r.Context(), address)
	if err != nil {
		h.logger.Error("distance check failed", "error", err)
		writeJSON(w, http.StatusBadGateway, DistanceCheckResponse{Success: false, Error: "distance check unavailable"})
		return
	}

	resp := DistanceCheckResponse{
		Success:          true,
		Classification:   res.Classification,
		IsInServiceArea:  res.Classification == InArea,
		IsExtendedArea:   res.Classification == ExtendedArea,
		FormattedAddress: res.FormattedAddress,
	}
	if res.Classification != Unknown {
		resp.Distance = &TextValue{Text: res.DistanceText}
		resp.DriveTime = &TextValue{Text: res.DriveTimeText}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
