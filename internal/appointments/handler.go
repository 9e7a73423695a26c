package appointments

import (
	"encoding/json"
	"net/http"

	"github.com/cleanmachine/detailing-platform/internal/wizard"
	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves the direct booking endpoint, for callers that assemble the
// whole payload themselves instead of walking a session.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// BookingRequest is the POST /api/book-appointment payload.
type BookingRequest struct {
	Name                  string            `json:"name"`
	Phone                 string            `json:"phone"`
	Email                 string            `json:"email"`
	Address               string            `json:"address"`
	Latitude              *float64          `json:"latitude"`
	Longitude             *float64          `json:"longitude"`
	ServiceName           string            `json:"serviceName"`
	AddOns                []string          `json:"addOns"`
	Vehicles              []wizard.Vehicle  `json:"vehicles"`
	TimeSlot              string            `json:"timeSlot"`
	Date                  string            `json:"date"`
	PreferredWindow       wizard.TimeWindow `json:"preferredWindow"`
	NeedsTimeConfirmation bool              `json:"needsTimeConfirmation"`
	Notes                 string            `json:"notes"`
	SMSConsent            bool              `json:"smsConsent"`
	ReferralCode          string            `json:"referralCode"`
	Recurring             string            `json:"recurring"`
}

// Book handles POST /api/book-appointment.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	sess := wizard.NewSession()
	sess.Draft = wizard.Draft{
		Name:                  req.Name,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Address:               req.Address,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		ServiceName:           req.ServiceName,
		AddOnNames:            req.AddOns,
		Vehicles:              req.Vehicles,
		TimeSlot:              req.TimeSlot,
		Date:                  req.Date,
		PreferredWindow:       req.PreferredWindow,
		NeedsTimeConfirmation: req.NeedsTimeConfirmation,
		Notes:                 req.Notes,
		SMSConsent:            req.SMSConsent,
		ReferralCode:          req.ReferralCode,
		RecurringFrequency:    req.Recurring,
	}
	if len(sess.Draft.Vehicles) == 0 {
		sess.Draft.Vehicles = []wizard.Vehicle{{}}
	}

	if err := sess.ValidateForSubmit(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "error": err.Error()})
		return
	}

	result, err := h.service.Submit(r.Context(), sess)
	if err != nil {
		h.logger.Error("direct booking failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to book the appointment"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"appointmentId": result.AppointmentID,
		"customerId":    result.CustomerID,
		"eventLink":     result.EventLink,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
