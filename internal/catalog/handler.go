package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves the public catalog endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListServicesResponse is the envelope for GET /api/services.
type ListServicesResponse struct {
	Success  bool      `json:"success"`
	Services []Service `json:"services"`
}

// ListAddOnsResponse is the envelope for GET /api/addon-services.
type ListAddOnsResponse struct {
	Success bool           `json:"success"`
	AddOns  []AddOnService `json:"addOns"`
}

// ListServices handles GET /api/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListServices(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to load services"})
		return
	}
	if services == nil {
		services = []Service{}
	}
	writeJSON(w, http.StatusOK, ListServicesResponse{Success: true, Services: services})
}

// ListAddOns handles GET /api/addon-services. An optional ?service= query
// orders recommended add-ons first for that selection.
func (h *Handler) ListAddOns(w http.ResponseWriter, r *http.Request) {
	addOns, err := h.repo.ListAddOns(r.Context())
	if err != nil {
		h.logger.Error("failed to list add-ons", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to load add-ons"})
		return
	}

	if serviceName := r.URL.Query().Get("service"); serviceName != "" {
		if selected, err := h.repo.GetServiceByName(r.Context(), serviceName); err == nil {
			addOns = RecommendAddOns(*selected, addOns)
		}
	}

	if addOns == nil {
		addOns = []AddOnService{}
	}
	writeJSON(w, http.StatusOK, ListAddOnsResponse{Success: true, AddOns: addOns})
}

// UpdateService handles PUT /admin/services/{serviceID}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid service id"})
		return
	}

	var upd ServiceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	if err := h.repo.UpdateService(r.Context(), id, upd); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "service not found"})
			return
		}
		h.logger.Error("failed to update service", "service_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to update service"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
