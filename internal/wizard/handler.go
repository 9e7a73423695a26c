package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmachine/detailing-platform/internal/availability"
	"github.com/cleanmachine/detailing-platform/internal/catalog"
	"github.com/cleanmachine/detailing-platform/internal/customers"
	"github.com/cleanmachine/detailing-platform/internal/geo"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/observability/metrics"
	"github.com/cleanmachine/detailing-platform/internal/pricing"
	"github.com/cleanmachine/detailing-platform/internal/weather"
	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// pinReviewMiles is how far a confirmation pin may drift from the geocoded
// point before the address is flagged for manual review.
const pinReviewMiles = 0.5

// SubmitResult is returned after a successful booking.
type SubmitResult struct {
	AppointmentID string `json:"appointmentId"`
	CustomerID    string `json:"customerId"`
	EventLink     string `json:"eventLink,omitempty"`
}

// Submitter persists a finished session as an appointment.
type Submitter interface {
	Submit(ctx context.Context, s *Session) (*SubmitResult, error)
}

// HandlerConfig carries the collaborators the booking flow touches.
type HandlerConfig struct {
	Store         Store
	Catalog       catalog.Repository
	Area          *geo.AreaChecker
	Forecaster    weather.Forecaster
	RainThreshold float64
	Availability  *availability.Service
	Pricing       pricing.Calculator
	Loyalty       *loyalty.Checker
	LoyaltyRepo   loyalty.Repository
	Referrals     *loyalty.ReferralValidator
	CustomersRepo customers.Repository
	PhoneQuiet    time.Duration
	HistoryLimit  int
	Submitter     Submitter
	Metrics       *metrics.BookingMetrics
	Logger        *logging.Logger
}

// Handler drives booking sessions over HTTP.
type Handler struct {
	store         Store
	catalog       catalog.Repository
	area          *geo.AreaChecker
	forecaster    weather.Forecaster
	rainThreshold float64
	availability  *availability.Service
	pricing       pricing.Calculator
	loyalty       *loyalty.Checker
	loyaltyRepo   loyalty.Repository
	referrals     *loyalty.ReferralValidator
	detector      *customers.Detector
	submitter     Submitter
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
}

// NewHandler wires the flow. It owns the phone detector so debounced lookups
// can write their results back into the session store.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		store:         cfg.Store,
		catalog:       cfg.Catalog,
		area:          cfg.Area,
		forecaster:    cfg.Forecaster,
		rainThreshold: cfg.RainThreshold,
		availability:  cfg.Availability,
		pricing:       cfg.Pricing,
		loyalty:       cfg.Loyalty,
		loyaltyRepo:   cfg.LoyaltyRepo,
		referrals:     cfg.Referrals,
		submitter:     cfg.Submitter,
		metrics:       cfg.Metrics,
		logger:        logger,
	}
	h.detector = customers.NewDetector(cfg.CustomersRepo, cfg.PhoneQuiet, cfg.HistoryLimit, h.onPhoneMatch, logger)
	return h
}

// Detector exposes the debounced phone detector, mainly so tests and
// graceful shutdown can wait on in-flight lookups.
func (h *Handler) Detector() *customers.Detector { return h.detector }

// Mount registers the booking-session routes on a router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/address", h.SetAddress)
		r.Post("/confirm-map", h.ConfirmMap)
		r.Post("/access", h.SetAccess)
		r.Post("/service", h.SelectService)
		r.Post("/addons", h.SetAddOns)
		r.Post("/vehicles", h.Vehicles)
		r.Post("/vehicles/continue", h.ContinueToDate)
		r.Post("/date", h.SelectDate)
		r.Post("/weather-ack", h.WeatherAck)
		r.Post("/skip-to-details", h.SkipToDetails)
		r.Post("/time", h.SelectTime)
		r.Post("/phone", h.Phone)
		r.Post("/details", h.Details)
		r.Post("/book-again", h.BookAgain)
		r.Post("/back", h.Back)
		r.Get("/quote", h.Quote)
		r.Post("/submit", h.Submit)
	})
}

type sessionResponse struct {
	Success   bool        `json:"success"`
	Session   *Session    `json:"session"`
	Indicator []StepState `json:"stepIndicator"`
}

func (h *Handler) respondSession(w http.ResponseWriter, s *Session) {
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: s, Indicator: s.Indicator()})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) *Session {
	id := chi.URLParam(r, "sessionID")
	s, err := h.store.Get(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	if err != nil {
		h.logger.Error("failed to load session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil
	}
	return s
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, s *Session) bool {
	if err := h.store.Save(r.Context(), s); err != nil {
		h.logger.Error("failed to save session", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return false
	}
	return true
}

// Create starts a new booking session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s := NewSession()
	if !h.save(w, r, s) {
		return
	}
	h.metrics.ObserveSessionStarted()
	h.logger.Info("booking session started", "session_id", s.ID)
	h.respondSession(w, s)
}

// Get returns the current session state.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	h.respondSession(w, s)
}

type addressRequest struct {
	Address string `json:"address"`
}

type addressResponse struct {
	Success       bool        `json:"success"`
	Session       *Session    `json:"session"`
	Indicator     []StepState `json:"stepIndicator"`
	Area          string      `json:"area"`
	DistanceText  string      `json:"distanceText,omitempty"`
	DriveTimeText string      `json:"driveTimeText,omitempty"`
}

// SetAddress runs the service-area check. An out-of-area address is a hard
// stop reported on the same step; an unresolvable one proceeds without a
// map.
func (h *Handler) SetAddress(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	area, err := h.area.Check(r.Context(), req.Address)
	if err != nil {
		h.logger.Error("service-area check failed", "session_id", s.ID, "error", err)
		writeError(w, http.StatusBadGateway, "could not verify the address, please try again")
		return
	}
	if area.Classification == geo.OutOfArea {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"area":    string(geo.OutOfArea),
			"error":   "that address is outside our service area",
		})
		return
	}
	if err := s.SetAddress(req.Address, area); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.save(w, r, s) {
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{
		Success:       true,
		Session:       s,
		Indicator:     s.Indicator(),
		Area:          string(area.Classification),
		DistanceText:  area.DistanceText,
		DriveTimeText: area.DriveTimeText,
	})
}

type confirmMapRequest struct {
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	PinWasDragged bool     `json:"pinWasDragged"`
}

// ConfirmMap accepts the pin position. A dragged pin that cannot be
// re-validated marks the address for manual review instead of blocking.
func (h *Handler) ConfirmMap(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req confirmMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	needsReview := false
	if req.PinWasDragged && req.Latitude != nil && req.Longitude != nil {
		pin := geo.Location{Lat: *req.Latitude, Lng: *req.Longitude}
		pinned := h.area.Classify(pin, s.Draft.FormattedAddress)
		if pinned.Classification == geo.OutOfArea {
			writeError(w, http.StatusOK, "that spot is outside our service area")
			return
		}
		// A pin dragged well away from the geocoded point gets flagged for
		// manual review rather than blocking the booking.
		if s.Draft.Latitude != nil && s.Draft.Longitude != nil {
			origin := geo.Location{Lat: *s.Draft.Latitude, Lng: *s.Draft.Longitude}
			if geo.Haversine(origin, pin) > pinReviewMiles {
				needsReview = true
			}
		}
		s.Draft.Latitude, s.Draft.Longitude = req.Latitude, req.Longitude
		s.Draft.ExtendedArea = pinned.Classification == geo.ExtendedArea
	}
	if err := s.ConfirmMap(needsReview); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type accessRequest struct {
	HasPower     bool   `json:"hasPower"`
	HasWater     bool   `json:"hasWater"`
	LocationType string `json:"locationType"`
}

func (h *Handler) SetAccess(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetAccess(req.HasPower, req.HasWater, req.LocationType); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type serviceRequest struct {
	Name string `json:"name"`
}

type serviceResponse struct {
	Success   bool                   `json:"success"`
	Session   *Session               `json:"session"`
	Indicator []StepState            `json:"stepIndicator"`
	AddOns    []catalog.AddOnService `json:"addOns"`
}

// SelectService validates the pick against the catalog and returns the
// add-on list with recommendations for it ordered first.
func (h *Handler) SelectService(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "service name is required")
		return
	}
	svc, err := h.catalog.GetServiceByName(r.Context(), req.Name)
	if errors.Is(err, catalog.ErrServiceNotFound) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	if err != nil {
		h.logger.Error("failed to load service", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load service")
		return
	}
	if err := s.SelectService(svc.Name); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.refreshRewardStatus(r.Context(), s)
	if !h.save(w, r, s) {
		return
	}

	addOns, err := h.catalog.ListAddOns(r.Context())
	if err != nil {
		h.logger.Warn("failed to list add-ons", "session_id", s.ID, "error", err)
		addOns = nil
	} else {
		addOns = catalog.RecommendAddOns(*svc, addOns)
	}
	if addOns == nil {
		addOns = []catalog.AddOnService{}
	}
	writeJSON(w, http.StatusOK, serviceResponse{Success: true, Session: s, Indicator: s.Indicator(), AddOns: addOns})
}

type addOnsRequest struct {
	Names    []string `json:"names"`
	Continue bool     `json:"continue"`
}

func (h *Handler) SetAddOns(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req addOnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetAddOns(req.Names); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if req.Continue {
		if err := s.ContinueToVehicles(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}
	h.refreshRewardStatus(r.Context(), s)
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type vehicleRequest struct {
	Op        string `json:"op"` // add, remove, update, toggleCondition
	Index     int    `json:"index"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      string `json:"year"`
	Color     string `json:"color"`
	Condition string `json:"condition"`
}

// Vehicles applies one vehicle mutation.
func (h *Handler) Vehicles(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var err error
	switch req.Op {
	case "add":
		s.AddVehicle()
	case "remove":
		err = s.RemoveVehicle(req.Index)
	case "update":
		err = s.UpdateVehicle(req.Index, req.Make, req.Model, req.Year, req.Color)
	case "toggleCondition":
		err = s.ToggleCondition(req.Index, req.Condition)
	default:
		writeError(w, http.StatusBadRequest, "unknown vehicle op")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.refreshRewardStatus(r.Context(), s)
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type dateStepResponse struct {
	Success   bool                   `json:"success"`
	Session   *Session               `json:"session"`
	Indicator []StepState            `json:"stepIndicator"`
	SlotsByDay map[string][]time.Time `json:"slotsByDay"`
	Days      []string               `json:"days"`
	Fallback  bool                   `json:"fallback"`
}

// ContinueToDate gates on the current vehicle and loads availability. A
// degraded or empty availability fetch flips the session into fallback
// scheduling rather than blocking the flow.
func (h *Handler) ContinueToDate(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	if err := s.ContinueToDate(); err != nil {
		if errors.Is(err, ErrIncompleteVehicle) {
			writeError(w, http.StatusUnprocessableEntity, "please finish the current vehicle first")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	result, err := h.availability.AvailableSlots(r.Context())
	fallback := err != nil || result.UsedFallback
	if err != nil {
		h.logger.Warn("availability fetch failed, using fallback scheduling", "session_id", s.ID, "error", err)
	}
	s.SetAvailabilityMode(fallback)
	if !h.save(w, r, s) {
		return
	}

	var slots []time.Time
	if result != nil {
		slots = result.Slots
	}
	byDay, days := availability.GroupByDay(slots)
	writeJSON(w, http.StatusOK, dateStepResponse{
		Success:    true,
		Session:    s,
		Indicator:  s.Indicator(),
		SlotsByDay: byDay,
		Days:       days,
		Fallback:   fallback,
	})
}

type dateRequest struct {
	Date string `json:"date"` // yyyy-MM-dd
}

type dateResponse struct {
	Success          bool             `json:"success"`
	Session          *Session         `json:"session"`
	Indicator        []StepState      `json:"stepIndicator"`
	WeatherRiskLevel weather.RiskLevel `json:"weatherRiskLevel"`
	AdvisoryPending  bool             `json:"advisoryPending"`
}

// SelectDate checks the forecast for the chosen day. A forecast failure is
// fail-open: weather must never block booking.
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req dateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse(availability.DayFormat, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be yyyy-MM-dd")
		return
	}

	risk := weather.RiskLow
	if s.Draft.Latitude != nil && s.Draft.Longitude != nil {
		forecast, err := h.forecaster.Forecast(r.Context(), *s.Draft.Latitude, *s.Draft.Longitude, req.Date)
		if err != nil {
			h.logger.Warn("forecast unavailable, proceeding without advisory", "session_id", s.ID, "error", err)
		} else {
			risk = weather.AssessRisk(forecast, h.rainThreshold)
		}
	}
	if err := s.SelectDate(req.Date, risk == weather.RiskHigh); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.save(w, r, s) {
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{
		Success:          true,
		Session:          s,
		Indicator:        s.Indicator(),
		WeatherRiskLevel: risk,
		AdvisoryPending:  s.WeatherAdvisoryPending,
	})
}

type weatherAckRequest struct {
	Proceed bool `json:"proceed"`
}

func (h *Handler) WeatherAck(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req weatherAckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.AcknowledgeWeather(req.Proceed); err != nil {
		writeError(w, http.StatusConflict, "no weather advisory is pending")
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type skipRequest struct {
	Window TimeWindow `json:"window"`
}

func (h *Handler) SkipToDetails(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SkipToDetails(req.Window); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type timeRequest struct {
	Slot string `json:"slot"` // RFC3339
}

func (h *Handler) SelectTime(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req timeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Slot == "" {
		writeError(w, http.StatusBadRequest, "slot is required")
		return
	}
	if _, err := time.Parse(time.RFC3339, req.Slot); err != nil {
		writeError(w, http.StatusBadRequest, "slot must be RFC3339")
		return
	}
	if err := s.SelectTime(req.Slot); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// Phone records a phone-input change. Exactly ten digits arms a debounced
// returning-customer lookup; the result lands on the session asynchronously
// via onPhoneMatch.
func (h *Handler) Phone(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.Draft.Phone = req.Phone
	s.Generation++
	digits := customers.NormalizePhone(req.Phone)
	s.PhoneLookupInFlight = len(digits) == 10
	if s.PhoneLookupInFlight && s.Draft.PendingReward != nil {
		status := loyalty.Validating()
		s.Draft.RewardStatus = &status
	}
	if !h.save(w, r, s) {
		return
	}
	h.detector.Observe(s.ID, req.Phone)
	h.respondSession(w, s)
}

// onPhoneMatch runs on the detector goroutine once a lookup settles. The
// session is re-read so a result from a superseded phone value is dropped.
func (h *Handler) onPhoneMatch(key string, match *customers.Match) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := h.store.Get(ctx, key)
	if err != nil {
		h.logger.Warn("phone lookup finished for missing session", "session_id", key, "error", err)
		return
	}
	if !s.PhoneLookupInFlight {
		return
	}
	s.PhoneLookupInFlight = false
	if match != nil {
		s.ApplyPrefill(match)
		h.metrics.ObservePhoneLookup("match")
		h.logger.Info("returning customer recognized", "session_id", key, "customer_id", match.Customer.ID)
	} else {
		h.metrics.ObservePhoneLookup("miss")
	}
	if s.Draft.PendingReward != nil {
		status := h.loyalty.Check(ctx, s.Draft.CustomerID, *s.Draft.PendingReward, h.cartItems(ctx, s))
		s.Draft.RewardStatus = &status
	}
	if err := h.store.Save(ctx, s); err != nil {
		h.logger.Error("failed to save prefilled session", "session_id", key, "error", err)
	}
}

type detailsRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Notes        string `json:"notes"`
	SMSConsent   *bool  `json:"smsConsent"`
	ReferralCode string `json:"referralCode"`
	RewardID     string `json:"rewardId"`
	Recurring    string `json:"recurring"`
}

// Details updates contact fields, validates any referral code, and attaches
// a reward pick with a fresh eligibility check.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req detailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d := &s.Draft
	if req.Name != "" {
		d.Name = req.Name
	}
	if req.Email != "" {
		d.Email = req.Email
	}
	if req.Notes != "" {
		d.Notes = req.Notes
	}
	if req.SMSConsent != nil {
		d.SMSConsent = *req.SMSConsent
	}
	if req.Recurring != "" {
		d.RecurringFrequency = req.Recurring
	}

	if req.ReferralCode != "" {
		result := h.referrals.Validate(r.Context(), req.ReferralCode)
		d.ReferralCode = loyalty.NormalizeCode(req.ReferralCode)
		d.Referral = &result
	}

	if req.RewardID != "" {
		reward, err := h.loyaltyRepo.GetReward(r.Context(), req.RewardID)
		if errors.Is(err, loyalty.ErrRewardNotFound) {
			writeError(w, http.StatusNotFound, "that reward is no longer available")
			return
		}
		if err != nil {
			h.logger.Error("failed to load reward", "session_id", s.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load reward")
			return
		}
		d.PendingReward = reward
		status := h.loyalty.Check(r.Context(), d.CustomerID, *reward, h.cartItems(r.Context(), s))
		d.RewardStatus = &status
	} else if req.RewardID == "" && req.ReferralCode == "" && req.Name == "" && req.Email == "" && req.Notes == "" && req.SMSConsent == nil && req.Recurring == "" {
		// An empty body clears a previously picked reward.
		d.PendingReward = nil
		d.RewardStatus = nil
	}

	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type bookAgainRequest struct {
	AppointmentID string `json:"appointmentId"`
}

// BookAgain re-seeds the draft from booking history after a returning
// customer was recognized.
func (h *Handler) BookAgain(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	var req bookAgainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointmentId is required")
		return
	}
	digits := customers.NormalizePhone(s.Draft.Phone)
	if len(digits) != 10 {
		writeError(w, http.StatusUnprocessableEntity, "a recognized phone number is required")
		return
	}
	match, err := h.detector.Lookup(r.Context(), digits)
	if err != nil || match == nil {
		writeError(w, http.StatusNotFound, "no booking history found")
		return
	}
	if !s.BookAgain(match, req.AppointmentID) {
		writeError(w, http.StatusNotFound, "no booking history found")
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

// Back steps backwards; at the address step there is nothing to go back to.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	if !s.Back() {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "atStart": true, "session": s, "stepIndicator": s.Indicator()})
		return
	}
	if !h.save(w, r, s) {
		return
	}
	h.respondSession(w, s)
}

type quoteResponse struct {
	Success bool           `json:"success"`
	Quote   pricing.Quote  `json:"quote"`
	Reward  *loyalty.ValidationStatus `json:"rewardStatus,omitempty"`
}

// Quote prices the current draft.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	quote, err := h.buildQuote(r.Context(), s)
	if err != nil {
		h.logger.Error("failed to price session", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to price the booking")
		return
	}
	// Eligibility is derived from whatever the cart totals to right now,
	// never served from a snapshot taken at an earlier step.
	h.refreshRewardStatus(r.Context(), s)
	writeJSON(w, http.StatusOK, quoteResponse{Success: true, Quote: *quote, Reward: s.Draft.RewardStatus})
}

// Submit validates the finished draft and books it.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s := h.load(w, r)
	if s == nil {
		return
	}
	if err := s.ValidateForSubmit(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.submitter.Submit(r.Context(), s)
	if err != nil {
		h.logger.Error("booking submit failed", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to book the appointment")
		return
	}
	if err := h.store.Delete(r.Context(), s.ID); err != nil {
		h.logger.Warn("failed to delete submitted session", "session_id", s.ID, "error", err)
	}
	h.logger.Info("booking submitted", "session_id", s.ID, "appointment_id", result.AppointmentID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"appointmentId": result.AppointmentID,
		"customerId":    result.CustomerID,
		"eventLink":     result.EventLink,
	})
}

// buildQuote resolves the draft against the catalog and prices it.
func (h *Handler) buildQuote(ctx context.Context, s *Session) (*pricing.Quote, error) {
	svc, err := h.catalog.GetServiceByName(ctx, s.Draft.ServiceName)
	if err != nil {
		return nil, err
	}
	addOns, err := h.selectedAddOns(ctx, s)
	if err != nil {
		return nil, err
	}
	conditions := make([][]string, len(s.Draft.Vehicles))
	for i, v := range s.Draft.Vehicles {
		conditions[i] = v.Conditions
	}
	quote := h.pricing.Compute(*svc, addOns, conditions)
	return &quote, nil
}

func (h *Handler) selectedAddOns(ctx context.Context, s *Session) ([]catalog.AddOnService, error) {
	if len(s.Draft.AddOnNames) == 0 {
		return nil, nil
	}
	all, err := h.catalog.ListAddOns(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(s.Draft.AddOnNames))
	for _, name := range s.Draft.AddOnNames {
		wanted[name] = true
	}
	var selected []catalog.AddOnService
	for _, a := range all {
		if wanted[a.Name] {
			selected = append(selected, a)
		}
	}
	return selected, nil
}

// refreshRewardStatus re-derives reward eligibility from the current cart.
// It runs on every cart mutation; an attached reward's status is never
// carried forward across a cart change.
func (h *Handler) refreshRewardStatus(ctx context.Context, s *Session) {
	if s.Draft.PendingReward == nil {
		return
	}
	if s.PhoneLookupInFlight {
		status := loyalty.Validating()
		s.Draft.RewardStatus = &status
		return
	}
	status := h.loyalty.Check(ctx, s.Draft.CustomerID, *s.Draft.PendingReward, h.cartItems(ctx, s))
	s.Draft.RewardStatus = &status
}

// cartItems renders the draft as loyalty cart items for eligibility checks.
// Pricing failures degrade to an empty cart, which the checker treats as
// not yet redeemable.
func (h *Handler) cartItems(ctx context.Context, s *Session) []loyalty.CartItem {
	quote, err := h.buildQuote(ctx, s)
	if err != nil {
		return nil
	}
	items := make([]loyalty.CartItem, 0, len(quote.Items))
	for _, li := range quote.Items {
		items = append(items, loyalty.CartItem{Name: li.Name, AmountCents: li.AmountCents, IsAddOn: li.IsAddOn})
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
