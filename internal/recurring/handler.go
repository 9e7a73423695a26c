package recurring

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves the recurring-services endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a recurring handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type scheduleRequest struct {
	CustomerID  string `json:"customerId"`
	ServiceName string `json:"serviceName"`
	Frequency   string `json:"frequency"`
}

// Schedule handles POST /api/recurring-services.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	err := h.service.Schedule(r.Context(), req.CustomerID, req.Frequency, req.ServiceName)
	if errors.Is(err, ErrInvalidFrequency) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "unsupported frequency"})
		return
	}
	if err != nil {
		h.logger.Error("failed to schedule recurring plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to schedule recurring service"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
