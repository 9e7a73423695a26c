package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmachine/detailing-platform/internal/availability"
	"github.com/cleanmachine/detailing-platform/internal/catalog"
	"github.com/cleanmachine/detailing-platform/internal/customers"
	"github.com/cleanmachine/detailing-platform/internal/geo"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/pricing"
	"github.com/cleanmachine/detailing-platform/internal/weather"
)

type fakeGeocoder struct {
	loc geo.Location
}

func (f fakeGeocoder) Geocode(_ context.Context, address string) (*geo.GeocodeResult, error) {
	return &geo.GeocodeResult{Location: f.loc, FormattedAddress: address + ", Chattanooga, TN"}, nil
}

type fakeForecaster struct {
	chance float64
	err    error
}

func (f fakeForecaster) Forecast(_ context.Context, _, _ float64, date string) (*weather.Forecast, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Forecast{
		Date:   date,
		Points: []weather.ForecastPoint{{Time: "09:00", ChanceOfRain: f.chance}},
	}, nil
}

type emptyBooked struct{}

func (emptyBooked) BookedStarts(context.Context, time.Time, time.Time) ([]time.Time, error) {
	return nil, nil
}

type stubLoyaltyRepo struct {
	points  int
	rewards map[string]loyalty.Reward
}

func (s *stubLoyaltyRepo) GetCustomerPoints(context.Context, string) (int, error) {
	return s.points, nil
}
func (s *stubLoyaltyRepo) AwardPoints(context.Context, string, int) error { return nil }
func (s *stubLoyaltyRepo) GetReward(_ context.Context, id string) (*loyalty.Reward, error) {
	r, ok := s.rewards[id]
	if !ok {
		return nil, loyalty.ErrRewardNotFound
	}
	return &r, nil
}
func (s *stubLoyaltyRepo) GetReferralCode(_ context.Context, code string) (*loyalty.ReferralCode, error) {
	if code == "FRIEND10" {
		return &loyalty.ReferralCode{Code: code, RewardDescription: "$10 off", Active: true}, nil
	}
	return nil, loyalty.ErrReferralNotFound
}

type stubCustomersRepo struct {
	customer *customers.Customer
	history  []customers.PastAppointment
	err      error
}

func (s *stubCustomersRepo) GetByPhone(_ context.Context, digits string) (*customers.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.customer != nil && customers.NormalizePhone(s.customer.Phone) == digits {
		return s.customer, nil
	}
	return nil, customers.ErrNotFound
}

func (s *stubCustomersRepo) ListPastAppointments(context.Context, string, int) ([]customers.PastAppointment, error) {
	return s.history, nil
}

type stubSubmitter struct {
	submitted *Session
	err       error
}

func (s *stubSubmitter) Submit(_ context.Context, sess *Session) (*SubmitResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.submitted = sess
	return &SubmitResult{AppointmentID: "appt-1", CustomerID: "cust-1"}, nil
}

type flowFixture struct {
	router     *chi.Mux
	store      *MemoryStore
	handler    *Handler
	submitter  *stubSubmitter
	forecaster *fakeForecaster
	custRepo   *stubCustomersRepo
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	repo := catalog.NewInMemoryRepository()
	repo.Seed(
		[]catalog.Service{
			{ID: 1, Name: "Full Detail", PriceRange: "$100", Category: "detail", Active: true},
			{ID: 2, Name: "Maintenance Wash", PriceRange: "$40", Category: "wash", Active: true},
		},
		[]catalog.AddOnService{{ID: 10, Name: "Engine Bay Cleaning", PriceRange: "$20", Active: true}},
	)

	checker := geo.NewAreaChecker(
		fakeGeocoder{loc: geo.Location{Lat: 35.05, Lng: -85.31}},
		geo.Location{Lat: 35.0456, Lng: -85.3097},
		20, 35, 30,
	)

	avail := availability.NewService(emptyBooked{}, availability.Schedule{
		OpenHour: 8, CloseHour: 18, SlotInterval: 2 * time.Hour, LookaheadDays: 14,
	}, nil)

	loyaltyRepo := &stubLoyaltyRepo{points: 600, rewards: map[string]loyalty.Reward{
		"rw-1": {ID: "rw-1", Name: "Free Interior Wipe", PointsCost: 500},
	}}

	custRepo := &stubCustomersRepo{
		customer: &customers.Customer{ID: "cust-1", Name: "Jordan Smith", Phone: "4235550142", Email: "jordan@example.com"},
	}

	forecaster := &fakeForecaster{chance: 0}
	submitter := &stubSubmitter{}
	store := NewMemoryStore()

	h := NewHandler(HandlerConfig{
		Store:         store,
		Catalog:       repo,
		Area:          checker,
		Forecaster:    forecaster,
		RainThreshold: 15,
		Availability:  avail,
		Pricing:       pricing.Calculator{PointsEarningRate: 1},
		Loyalty:       loyalty.NewChecker(loyaltyRepo, 5000, nil),
		LoyaltyRepo:   loyaltyRepo,
		Referrals:     loyalty.NewReferralValidator(loyaltyRepo, nil),
		CustomersRepo: custRepo,
		PhoneQuiet:    5 * time.Millisecond,
		HistoryLimit:  5,
		Submitter:     submitter,
	})

	r := chi.NewRouter()
	r.Route("/api/booking-session", h.Mount)
	return &flowFixture{router: r, store: store, handler: h, submitter: submitter, forecaster: forecaster, custRepo: custRepo}
}

func (f *flowFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (f *flowFixture) createSession(t *testing.T) string {
	t.Helper()
	rec, body := f.do(t, http.MethodPost, "/api/booking-session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := body["session"].(map[string]any)
	return session["id"].(string)
}

func TestFlowEndToEnd(t *testing.T) {
	f := newFlowFixture(t)
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	rec, body := f.do(t, http.MethodPost, base+"/address", map[string]any{"address": "123 Main St"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "IN_AREA", body["area"])

	rec, _ = f.do(t, http.MethodPost, base+"/confirm-map", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, base+"/access", map[string]any{"hasPower": true, "hasWater": true, "locationType": "driveway"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodPost, base+"/service", map[string]any{"name": "Full Detail"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, body["addOns"])

	rec, _ = f.do(t, http.MethodPost, base+"/addons", map[string]any{"names": []string{"Engine Bay Cleaning"}, "continue": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, base+"/vehicles", map[string]any{"op": "update", "index": 0, "make": "Toyota", "model": "Camry", "year": "2021"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodPost, base+"/vehicles/continue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["fallback"])
	require.NotEmpty(t, body["days"])

	date := body["days"].([]any)[0].(string)
	rec, body = f.do(t, http.MethodPost, base+"/date", map[string]any{"date": date})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(weather.RiskLow), body["weatherRiskLevel"])

	slot := fmt.Sprintf("%sT14:00:00Z", date)
	rec, _ = f.do(t, http.MethodPost, base+"/time", map[string]any{"slot": slot})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, base+"/details", map[string]any{"name": "Jordan Smith", "smsConsent": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, base+"/phone", map[string]any{"phone": "(423) 555-0142"})
	require.Equal(t, http.StatusOK, rec.Code)
	time.Sleep(20 * time.Millisecond)
	f.handler.Detector().Wait()

	s, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", s.Draft.CustomerID)
	assert.False(t, s.PhoneLookupInFlight)

	rec, body = f.do(t, http.MethodGet, base+"/quote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := body["quote"].(map[string]any)
	assert.Equal(t, float64(12000), quote["totalCents"])

	rec, body = f.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "appt-1", body["appointmentId"])
	require.NotNil(t, f.submitter.submitted)

	// The session is gone once booked.
	rec, _ = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowHighRainRequiresAck(t *testing.T) {
	f := newFlowFixture(t)
	f.forecaster.chance = 80
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	f.do(t, http.MethodPost, base+"/address", map[string]any{"address": "123 Main St"})
	f.do(t, http.MethodPost, base+"/confirm-map", map[string]any{})
	f.do(t, http.MethodPost, base+"/access", map[string]any{})
	f.do(t, http.MethodPost, base+"/service", map[string]any{"name": "Full Detail"})
	f.do(t, http.MethodPost, base+"/addons", map[string]any{"continue": true})
	f.do(t, http.MethodPost, base+"/vehicles", map[string]any{"op": "update", "make": "Kia", "model": "Soul", "year": "2022"})
	f.do(t, http.MethodPost, base+"/vehicles/continue", nil)

	rec, body := f.do(t, http.MethodPost, base+"/date", map[string]any{"date": "2026-09-07"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(weather.RiskHigh), body["weatherRiskLevel"])
	assert.Equal(t, true, body["advisoryPending"])

	rec, body = f.do(t, http.MethodPost, base+"/weather-ack", map[string]any{"proceed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	session := body["session"].(map[string]any)
	assert.Equal(t, string(StepTime), session["step"])
}

func TestFlowForecastFailureIsFailOpen(t *testing.T) {
	f := newFlowFixture(t)
	f.forecaster.err = fmt.Errorf("upstream down")
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	f.do(t, http.MethodPost, base+"/address", map[string]any{"address": "123 Main St"})
	f.do(t, http.MethodPost, base+"/confirm-map", map[string]any{})
	f.do(t, http.MethodPost, base+"/access", map[string]any{})
	f.do(t, http.MethodPost, base+"/service", map[string]any{"name": "Full Detail"})
	f.do(t, http.MethodPost, base+"/addons", map[string]any{"continue": true})
	f.do(t, http.MethodPost, base+"/vehicles", map[string]any{"op": "update", "make": "Kia", "model": "Soul", "year": "2022"})
	f.do(t, http.MethodPost, base+"/vehicles/continue", nil)

	rec, body := f.do(t, http.MethodPost, base+"/date", map[string]any{"date": "2026-09-07"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(weather.RiskLow), body["weatherRiskLevel"])
	session := body["session"].(map[string]any)
	assert.Equal(t, string(StepTime), session["step"])
}

func TestFlowRewardStatusTracksCartChanges(t *testing.T) {
	f := newFlowFixture(t)
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	f.do(t, http.MethodPost, base+"/address", map[string]any{"address": "123 Main St"})
	f.do(t, http.MethodPost, base+"/confirm-map", map[string]any{})
	f.do(t, http.MethodPost, base+"/access", map[string]any{})
	f.do(t, http.MethodPost, base+"/service", map[string]any{"name": "Maintenance Wash"})
	f.do(t, http.MethodPost, base+"/addons", map[string]any{"names": []string{"Engine Bay Cleaning"}, "continue": true})
	f.do(t, http.MethodPost, base+"/vehicles", map[string]any{"op": "update", "make": "Kia", "model": "Soul", "year": "2022"})
	f.do(t, http.MethodPost, base+"/vehicles/continue", nil)
	f.do(t, http.MethodPost, base+"/date", map[string]any{"date": "2026-09-07"})
	f.do(t, http.MethodPost, base+"/time", map[string]any{"slot": "2026-09-07T14:00:00Z"})

	// $40 service + $20 add-on clears the $50 redemption minimum.
	rec, _ := f.do(t, http.MethodPost, base+"/details", map[string]any{"rewardId": "rw-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, http.MethodGet, base+"/quote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reward := body["rewardStatus"].(map[string]any)
	assert.Equal(t, true, reward["canRedeem"])

	// Walk back to the add-ons step and drop the add-on; the $40 cart is
	// below the minimum, so eligibility has to flip with it.
	for i := 0; i < 4; i++ {
		rec, _ = f.do(t, http.MethodPost, base+"/back", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ = f.do(t, http.MethodPost, base+"/addons", map[string]any{"names": []string{}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodGet, base+"/quote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := body["quote"].(map[string]any)
	assert.Equal(t, float64(4000), quote["totalCents"])
	reward = body["rewardStatus"].(map[string]any)
	assert.Equal(t, false, reward["canRedeem"])
	assert.Contains(t, reward["reason"], "minimum")

	// Restoring the add-on restores eligibility.
	rec, _ = f.do(t, http.MethodPost, base+"/addons", map[string]any{"names": []string{"Engine Bay Cleaning"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = f.do(t, http.MethodGet, base+"/quote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reward = body["rewardStatus"].(map[string]any)
	assert.Equal(t, true, reward["canRedeem"])
}

func TestFlowPhoneLookupErrorSettlesSession(t *testing.T) {
	f := newFlowFixture(t)
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	f.do(t, http.MethodPost, base+"/address", map[string]any{"address": "123 Main St"})
	f.do(t, http.MethodPost, base+"/confirm-map", map[string]any{})
	f.do(t, http.MethodPost, base+"/access", map[string]any{})
	f.do(t, http.MethodPost, base+"/service", map[string]any{"name": "Full Detail"})
	f.do(t, http.MethodPost, base+"/addons", map[string]any{"names": []string{"Engine Bay Cleaning"}, "continue": true})
	f.do(t, http.MethodPost, base+"/vehicles", map[string]any{"op": "update", "make": "Kia", "model": "Soul", "year": "2022"})
	f.do(t, http.MethodPost, base+"/vehicles/continue", nil)
	f.do(t, http.MethodPost, base+"/date", map[string]any{"date": "2026-09-07"})
	f.do(t, http.MethodPost, base+"/time", map[string]any{"slot": "2026-09-07T14:00:00Z"})

	rec, _ := f.do(t, http.MethodPost, base+"/details", map[string]any{"rewardId": "rw-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	f.custRepo.err = fmt.Errorf("db down")
	rec, _ = f.do(t, http.MethodPost, base+"/phone", map[string]any{"phone": "(423) 555-0142"})
	require.Equal(t, http.StatusOK, rec.Code)
	time.Sleep(20 * time.Millisecond)
	f.handler.Detector().Wait()

	s, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, s.PhoneLookupInFlight, "a failed lookup must not leave the session in flight")
	require.NotNil(t, s.Draft.RewardStatus)
	assert.False(t, s.Draft.RewardStatus.IsValidating)
	assert.True(t, s.Draft.RewardStatus.CanRedeem, "the local guardrail takes over after a failed lookup")
}

func TestFlowSubmitGates(t *testing.T) {
	f := newFlowFixture(t)
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	rec, body := f.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Nil(t, f.submitter.submitted)
}

func TestFlowUnknownService(t *testing.T) {
	f := newFlowFixture(t)
	id := f.createSession(t)
	base := "/api/booking-session/" + id

	f.do(t, http.MethodPost, base+"/address", map[string]any{"address": "123 Main St"})
	f.do(t, http.MethodPost, base+"/confirm-map", map[string]any{})
	f.do(t, http.MethodPost, base+"/access", map[string]any{})

	rec, _ := f.do(t, http.MethodPost, base+"/service", map[string]any{"name": "Nonexistent"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
