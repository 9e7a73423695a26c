package loyalty

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Handler serves the loyalty and referral endpoints.
type Handler struct {
	checker   *Checker
	referrals *ReferralValidator
	repo      Repository
	logger    *logging.Logger
}

// NewHandler creates a loyalty handler.
func NewHandler(checker *Checker, referrals *ReferralValidator, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{checker: checker, referrals: referrals, repo: repo, logger: logger}
}

// ValidateRedemptionRequest is the body for POST /api/loyalty/validate-redemption.
type ValidateRedemptionRequest struct {
	CustomerID       string     `json:"customerId"`
	RewardID         string     `json:"rewardId"`
	CartTotalCents   int        `json:"cartTotal"`
	SelectedServices []CartItem `json:"selectedServices"`
}

// ValidateRedemption handles POST /api/loyalty/validate-redemption.
func (h *Handler) ValidateRedemption(w http.ResponseWriter, r *http.Request) {
	var req ValidateRedemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RewardID == "" {
		http.Error(w, "rewardId is required", http.StatusBadRequest)
		return
	}

	status := h.checker.CheckWithTotal(r.Context(), req.CustomerID, Reward{ID: req.RewardID}, req.SelectedServices, req.CartTotalCents)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": status})
}

// ValidateReferralRequest is the body for POST /api/referral/validate.
type ValidateReferralRequest struct {
	Code string `json:"code"`
}

// ValidateReferral handles POST /api/referral/validate.
func (h *Handler) ValidateReferral(w http.ResponseWriter, r *http.Request) {
	var req ValidateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := h.referrals.Validate(r.Context(), req.Code)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"valid": result.IsValid, "reward": result.Reward, "error": result.Error},
	})
}

// GetAccount handles GET /api/loyalty/{customerID} for the loyalty display.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		http.Error(w, "missing customer id", http.StatusBadRequest)
		return
	}

	points, err := h.repo.GetCustomerPoints(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to load loyalty points", "error", err, "customer_id", customerID)
		http.Error(w, "failed to load loyalty account", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "account": AccountFor(customerID, points)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
