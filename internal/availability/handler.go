package availability

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves GET /api/available-slots.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Response is the envelope for the available-slots endpoint. Slots are ISO
// timestamps; Fallback signals the degraded raw-date-picker mode.
type Response struct {
	Success  bool     `json:"success"`
	Slots    []string `json:"slots"`
	Fallback bool     `json:"fallback,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// AvailableSlots handles GET /api/available-slots?service=. The service
// parameter is accepted for contract parity; one mobile crew serves every
// service, so the slot pool is shared.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.AvailableSlots(r.Context())
	if err != nil {
		h.logger.Error("availability lookup failed", "error", err, "service", r.URL.Query().Get("service"))
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "availability unavailable"})
		return
	}

	out := Response{Success: true, Slots: []string{}, Fallback: res.UsedFallback}
	for _, slot := range res.Slots {
		out.Slots = append(out.Slots, slot.Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
