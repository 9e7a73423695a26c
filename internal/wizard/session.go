// Package wizard implements the booking flow as a server-side session state
// machine: address verification through service, vehicles, scheduling, and
// final submission, with every transition guard enforced here rather than in
// the web client.
package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleanmachine/detailing-platform/internal/geo"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/pricing"
)

// Step identifies one screen of the booking flow.
type Step string

const (
	StepAddress            Step = "address"
	StepMapConfirmation    Step = "mapConfirmation"
	StepAccessVerification Step = "accessVerification"
	StepService            Step = "service"
	StepAddons             Step = "addons"
	StepVehicle            Step = "vehicle"
	StepDate               Step = "date"
	StepTime               Step = "time"
	StepDetails            Step = "details"
)

// stepOrder is the canonical traversal order.
var stepOrder = []Step{
	StepAddress,
	StepMapConfirmation,
	StepAccessVerification,
	StepService,
	StepAddons,
	StepVehicle,
	StepDate,
	StepTime,
	StepDetails,
}

// Transition and validation errors.
var (
	ErrInvalidTransition  = errors.New("wizard: invalid transition")
	ErrIncompleteVehicle  = errors.New("wizard: current vehicle needs make, model and year")
	ErrNoFallback         = errors.New("wizard: skip to details requires fallback availability")
	ErrAdvisoryPending    = errors.New("wizard: weather advisory awaiting acknowledgement")
	ErrNoDateSelected     = errors.New("wizard: no date selected")
	ErrSessionNotFound    = errors.New("wizard: session not found")
	ErrVehicleIndexBounds = errors.New("wizard: vehicle index out of range")
)

// TimeWindow is the fallback-mode preferred time of day.
type TimeWindow string

const (
	WindowMorning   TimeWindow = "morning"
	WindowAfternoon TimeWindow = "afternoon"
	WindowAnytime   TimeWindow = "anytime"
)

// Vehicle is one vehicle on the booking.
type Vehicle struct {
	Make       string   `json:"make"`
	Model      string   `json:"model"`
	Year       string   `json:"year"`
	Color      string   `json:"color"`
	Conditions []string `json:"conditions"`
}

// Complete reports whether the fields gating vehicle → date are filled.
func (v Vehicle) Complete() bool {
	return v.Make != "" && v.Model != "" && v.Year != ""
}

// HasCondition reports whether a condition label is selected.
func (v Vehicle) HasCondition(label string) bool {
	for _, c := range v.Conditions {
		if c == label {
			return true
		}
	}
	return false
}

// toggleCondition adds or removes a label, keeping "None of the above"
// mutually exclusive with everything else.
func (v *Vehicle) toggleCondition(label string) {
	if v.HasCondition(label) {
		kept := v.Conditions[:0]
		for _, c := range v.Conditions {
			if c != label {
				kept = append(kept, c)
			}
		}
		v.Conditions = kept
		return
	}
	if label == pricing.ConditionNone {
		v.Conditions = []string{pricing.ConditionNone}
		return
	}
	kept := v.Conditions[:0]
	for _, c := range v.Conditions {
		if c != pricing.ConditionNone {
			kept = append(kept, c)
		}
	}
	v.Conditions = append(kept, label)
}

// Draft is the working booking state, persisted to the backend in one atomic
// submit and never partially.
type Draft struct {
	Address            string   `json:"address"`
	FormattedAddress   string   `json:"formattedAddress,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	ExtendedArea       bool     `json:"extendedArea"`
	AddressNeedsReview bool     `json:"addressNeedsReview"`

	HasPower     bool   `json:"hasPower"`
	HasWater     bool   `json:"hasWater"`
	LocationType string `json:"locationType,omitempty"`

	ServiceName string   `json:"serviceName,omitempty"`
	AddOnNames  []string `json:"addOnNames,omitempty"`

	Vehicles       []Vehicle `json:"vehicles"`
	CurrentVehicle int       `json:"currentVehicle"`

	Date                  string     `json:"date,omitempty"`     // yyyy-MM-dd
	TimeSlot              string     `json:"timeSlot,omitempty"` // RFC3339
	PreferredWindow       TimeWindow `json:"preferredWindow,omitempty"`
	NeedsTimeConfirmation bool       `json:"needsTimeConfirmation"`

	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Notes      string `json:"notes,omitempty"`
	SMSConsent bool   `json:"smsConsent"`

	CustomerID string `json:"customerId,omitempty"`

	ReferralCode string                  `json:"referralCode,omitempty"`
	Referral     *loyalty.ReferralResult `json:"referral,omitempty"`

	PendingReward *loyalty.Reward           `json:"pendingReward,omitempty"`
	RewardStatus  *loyalty.ValidationStatus `json:"rewardStatus,omitempty"`

	RecurringFrequency string `json:"recurringFrequency,omitempty"`
}

// Session is one in-progress booking.
type Session struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`
	Draft Draft `json:"draft"`

	FallbackAvailability   bool `json:"fallbackAvailability"`
	WeatherAdvisoryPending bool `json:"weatherAdvisoryPending"`
	PhoneLookupInFlight    bool `json:"phoneLookupInFlight"`

	// Generation guards async lookups: a result is applied only when the
	// generation it was issued under is still current.
	Generation uint64 `json:"generation"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession creates a session at the address step with one empty vehicle.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:   uuid.NewString(),
		Step: StepAddress,
		Draft: Draft{
			Vehicles: []Vehicle{{}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// SetAddress records a service-area check outcome and advances. With
// resolved coordinates the flow passes through map confirmation; without
// them it goes straight to access verification.
func (s *Session) SetAddress(address string, area *geo.AreaResult) error {
	if s.Step != StepAddress {
		return fmt.Errorf("%w: set address from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.Address = address
	s.Draft.FormattedAddress = area.FormattedAddress
	s.Draft.ExtendedArea = area.Classification == geo.ExtendedArea

	if area.Classification == geo.Unknown {
		s.Draft.Latitude, s.Draft.Longitude = nil, nil
		s.Step = StepAccessVerification
		s.touch()
		return nil
	}
	lat, lng := area.Location.Lat, area.Location.Lng
	s.Draft.Latitude, s.Draft.Longitude = &lat, &lng
	s.Step = StepMapConfirmation
	s.touch()
	return nil
}

// ConfirmMap leaves map confirmation, carrying the needs-review flag set
// when a dragged pin could not be re-validated.
func (s *Session) ConfirmMap(needsReview bool) error {
	if s.Step != StepMapConfirmation {
		return fmt.Errorf("%w: confirm map from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.AddressNeedsReview = needsReview
	s.Step = StepAccessVerification
	s.touch()
	return nil
}

// SetAccess records power/water/location answers and advances to service
// selection.
func (s *Session) SetAccess(hasPower, hasWater bool, locationType string) error {
	if s.Step != StepAccessVerification {
		return fmt.Errorf("%w: set access from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.HasPower = hasPower
	s.Draft.HasWater = hasWater
	s.Draft.LocationType = locationType
	s.Step = StepService
	s.touch()
	return nil
}

// SelectService fires on any catalog selection and advances to add-ons.
func (s *Session) SelectService(name string) error {
	if s.Step != StepService {
		return fmt.Errorf("%w: select service from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.ServiceName = name
	s.Step = StepAddons
	s.touch()
	return nil
}

// SetAddOns replaces the selected add-on names; valid while on the add-ons
// step.
func (s *Session) SetAddOns(names []string) error {
	if s.Step != StepAddons {
		return fmt.Errorf("%w: set add-ons from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.AddOnNames = append([]string(nil), names...)
	s.touch()
	return nil
}

// ContinueToVehicles leaves the add-ons step; add-ons stay optional.
func (s *Session) ContinueToVehicles() error {
	if s.Step != StepAddons {
		return fmt.Errorf("%w: continue from %s", ErrInvalidTransition, s.Step)
	}
	s.Step = StepVehicle
	s.touch()
	return nil
}

// AddVehicle appends an empty vehicle slot and makes it current.
func (s *Session) AddVehicle() {
	s.Draft.Vehicles = append(s.Draft.Vehicles, Vehicle{})
	s.Draft.CurrentVehicle = len(s.Draft.Vehicles) - 1
	s.touch()
}

// RemoveVehicle deletes a slot, never dropping below one entry, and clamps
// the current index downward.
func (s *Session) RemoveVehicle(index int) error {
	if index < 0 || index >= len(s.Draft.Vehicles) {
		return ErrVehicleIndexBounds
	}
	if len(s.Draft.Vehicles) == 1 {
		// The invariant: a booking always has at least one vehicle slot.
		return nil
	}
	s.Draft.Vehicles = append(s.Draft.Vehicles[:index], s.Draft.Vehicles[index+1:]...)
	if s.Draft.CurrentVehicle >= len(s.Draft.Vehicles) {
		s.Draft.CurrentVehicle = len(s.Draft.Vehicles) - 1
	}
	s.touch()
	return nil
}

// UpdateVehicle mutates a vehicle slot in place.
func (s *Session) UpdateVehicle(index int, make, model, year, color string) error {
	if index < 0 || index >= len(s.Draft.Vehicles) {
		return ErrVehicleIndexBounds
	}
	v := &s.Draft.Vehicles[index]
	v.Make, v.Model, v.Year, v.Color = make, model, year, color
	s.Draft.CurrentVehicle = index
	s.touch()
	return nil
}

// ToggleCondition flips a condition label on a vehicle, enforcing the
// "None of the above" exclusivity rule.
func (s *Session) ToggleCondition(index int, label string) error {
	if index < 0 || index >= len(s.Draft.Vehicles) {
		return ErrVehicleIndexBounds
	}
	s.Draft.Vehicles[index].toggleCondition(label)
	s.touch()
	return nil
}

// ContinueToDate gates vehicle → date on the current vehicle being complete.
// A failed gate leaves the step untouched, so retrying after completion
// transitions exactly once.
func (s *Session) ContinueToDate() error {
	if s.Step != StepVehicle {
		return fmt.Errorf("%w: continue from %s", ErrInvalidTransition, s.Step)
	}
	if !s.Draft.Vehicles[s.Draft.CurrentVehicle].Complete() {
		return ErrIncompleteVehicle
	}
	s.Step = StepDate
	s.touch()
	return nil
}

// SetAvailabilityMode records whether the availability fetch degraded to
// fallback; called when the date step loads.
func (s *Session) SetAvailabilityMode(fallback bool) {
	s.FallbackAvailability = fallback
	s.touch()
}

// SelectDate stores a chosen calendar date. highRisk raises a weather
// advisory that must be acknowledged before the time step; a forecast
// failure is fail-open and the caller passes highRisk=false. In fallback
// mode the session stays on date until SkipToDetails.
func (s *Session) SelectDate(date string, highRisk bool) error {
	if s.Step != StepDate {
		return fmt.Errorf("%w: select date from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.Date = date
	if highRisk {
		s.WeatherAdvisoryPending = true
		s.touch()
		return nil
	}
	if !s.FallbackAvailability {
		s.Step = StepTime
	}
	s.touch()
	return nil
}

// AcknowledgeWeather resolves a pending advisory: proceed advances, a
// reschedule clears the chosen date and stays on the date step.
func (s *Session) AcknowledgeWeather(proceed bool) error {
	if !s.WeatherAdvisoryPending {
		return ErrAdvisoryPending
	}
	s.WeatherAdvisoryPending = false
	if !proceed {
		s.Draft.Date = ""
		s.touch()
		return nil
	}
	if !s.FallbackAvailability {
		s.Step = StepTime
	}
	s.touch()
	return nil
}

// SelectTime stores a concrete slot and advances to details.
func (s *Session) SelectTime(slotISO string) error {
	if s.Step != StepTime {
		return fmt.Errorf("%w: select time from %s", ErrInvalidTransition, s.Step)
	}
	s.Draft.TimeSlot = slotISO
	s.Draft.NeedsTimeConfirmation = false
	s.Step = StepDetails
	s.touch()
	return nil
}

// SkipToDetails is the fallback path: permitted only when availability
// degraded and a date is chosen; the eventual booking defers exact-time
// confirmation to a follow-up text.
func (s *Session) SkipToDetails(window TimeWindow) error {
	if s.Step != StepDate {
		return fmt.Errorf("%w: skip from %s", ErrInvalidTransition, s.Step)
	}
	if !s.FallbackAvailability {
		return ErrNoFallback
	}
	if s.Draft.Date == "" {
		return ErrNoDateSelected
	}
	if window == "" {
		window = WindowAnytime
	}
	s.Draft.PreferredWindow = window
	s.Draft.NeedsTimeConfirmation = true
	s.Draft.TimeSlot = ""
	s.Step = StepDetails
	s.touch()
	return nil
}

// Back moves to the previous step. It is unguarded everywhere except the
// address step, where closing is the caller's concern (Back returns false).
// Map confirmation is skipped when no coordinates were resolved, and the
// time step is skipped in fallback mode.
func (s *Session) Back() bool {
	idx := stepIndex(s.Step)
	if idx <= 0 {
		return false
	}
	prev := stepOrder[idx-1]
	if prev == StepMapConfirmation && s.Draft.Latitude == nil {
		prev = StepAddress
	}
	if prev == StepTime && s.FallbackAvailability {
		prev = StepDate
	}
	s.WeatherAdvisoryPending = false
	s.Step = prev
	s.touch()
	return true
}

// StepStatus is the indicator state of one step.
type StepStatus string

const (
	StatusComplete StepStatus = "complete"
	StatusActive   StepStatus = "active"
	StatusPending  StepStatus = "pending"
)

// StepState pairs a step with its indicator status.
type StepState struct {
	Step   Step       `json:"step"`
	Status StepStatus `json:"status"`
}

// Indicator projects the current step onto the fixed step list.
func (s *Session) Indicator() []StepState {
	current := stepIndex(s.Step)
	out := make([]StepState, len(stepOrder))
	for i, step := range stepOrder {
		status := StatusPending
		switch {
		case i < current:
			status = StatusComplete
		case i == current:
			status = StatusActive
		}
		out[i] = StepState{Step: step, Status: status}
	}
	return out
}

func stepIndex(step Step) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return 0
}

// ValidateForSubmit enforces the details-step gates. It returns the first
// violated rule so the UI can toast it.
func (s *Session) ValidateForSubmit() error {
	d := s.Draft
	switch {
	case d.Name == "":
		return errors.New("wizard: name is required")
	case d.Phone == "":
		return errors.New("wizard: phone is required")
	case d.ServiceName == "":
		return errors.New("wizard: a service must be selected")
	case d.TimeSlot == "" && d.Date == "":
		return errors.New("wizard: a date or time must be selected")
	case !d.SMSConsent:
		// Hard requirement: appointment coordination happens over SMS.
		return errors.New("wizard: SMS consent is required to book")
	}
	for i, v := range d.Vehicles {
		if !v.Complete() {
			return fmt.Errorf("wizard: vehicle %d needs make, model and year", i+1)
		}
	}
	return nil
}
