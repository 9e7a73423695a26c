package customers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves the returning-customer lookup endpoint.
type Handler struct {
	detector *Detector
	logger   *logging.Logger
}

// NewHandler creates a customers handler.
func NewHandler(detector *Detector, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{detector: detector, logger: logger}
}

// CheckPhoneResponse is the envelope for GET /api/customers/check-phone/{phone}.
type CheckPhoneResponse struct {
	Success           bool              `json:"success"`
	IsReturning       bool              `json:"isReturning"`
	Customer          *Customer         `json:"customer,omitempty"`
	RecentAppointment *PastAppointment  `json:"recentAppointment,omitempty"`
	PastAppointments  []PastAppointment `json:"pastAppointments,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// CheckPhone handles GET /api/customers/check-phone/{phone}.
func (h *Handler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	digits := NormalizePhone(chi.URLParam(r, "phone"))
	if len(digits) != 10 {
		writeJSON(w, http.StatusBadRequest, CheckPhoneResponse{Success: false, Error: "phone must be 10 digits"})
		return
	}

	match, err := h.detector.Lookup(r.Context(), digits)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusOK, CheckPhoneResponse{Success: true, IsReturning: false})
		return
	}
	if err != nil {
		h.logger.Error("check-phone failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, CheckPhoneResponse{Success: false, Error: "lookup failed"})
		return
	}

	writeJSON(w, http.StatusOK, CheckPhoneResponse{
		Success:           true,
		IsReturning:       true,
		Customer:          &match.Customer,
		RecentAppointment: match.RecentAppointment,
		PastAppointments:  match.PastAppointments,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
