package appointments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmachine/detailing-platform/internal/catalog"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/notify"
	"github.com/cleanmachine/detailing-platform/internal/pricing"
	"github.com/cleanmachine/detailing-platform/internal/wizard"
)

type stubRepo struct {
	customer CustomerUpsert
	record   *Record
	err      error
}

func (s *stubRepo) Book(_ context.Context, customer CustomerUpsert, rec *Record) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	s.customer = customer
	s.record = rec
	return "appt-1", "cust-1", nil
}

type pointsLedger struct {
	awards []int
}

func (p *pointsLedger) GetCustomerPoints(context.Context, string) (int, error) { return 0, nil }
func (p *pointsLedger) AwardPoints(_ context.Context, _ string, points int) error {
	p.awards = append(p.awards, points)
	return nil
}
func (p *pointsLedger) GetReward(context.Context, string) (*loyalty.Reward, error) {
	return nil, loyalty.ErrRewardNotFound
}
func (p *pointsLedger) GetReferralCode(context.Context, string) (*loyalty.ReferralCode, error) {
	return nil, loyalty.ErrReferralNotFound
}

type capturedPublisher struct {
	confirmations []notify.Confirmation
}

func (c *capturedPublisher) EnqueueConfirmation(_ context.Context, conf notify.Confirmation) error {
	c.confirmations = append(c.confirmations, conf)
	return nil
}

type capturedRecurring struct {
	frequency string
}

func (c *capturedRecurring) Schedule(_ context.Context, _, frequency, _ string) error {
	c.frequency = frequency
	return nil
}

func seededCatalog() *catalog.InMemoryRepository {
	repo := catalog.NewInMemoryRepository()
	repo.Seed(
		[]catalog.Service{{ID: 1, Name: "Full Detail", PriceRange: "$100", DurationHours: 3, Active: true}},
		[]catalog.AddOnService{{ID: 10, Name: "Engine Bay Cleaning", PriceRange: "$20", Active: true}},
	)
	return repo
}

func bookableSession() *wizard.Session {
	s := wizard.NewSession()
	s.Draft = wizard.Draft{
		Name:        "Jordan Smith",
		Phone:       "(423) 555-0142",
		Email:       "jordan@example.com",
		Address:     "123 Main St",
		ServiceName: "Full Detail",
		AddOnNames:  []string{"Engine Bay Cleaning"},
		Vehicles:    []wizard.Vehicle{{Make: "Toyota", Model: "Camry", Year: "2021"}},
		Date:        "2026-09-07",
		TimeSlot:    "2026-09-07T14:00:00Z",
		SMSConsent:  true,
	}
	return s
}

func TestSubmitBooksAndFollowsUp(t *testing.T) {
	repo := &stubRepo{}
	ledger := &pointsLedger{}
	pub := &capturedPublisher{}
	rec := &capturedRecurring{}

	svc := NewService(ServiceConfig{
		Repo:      repo,
		Catalog:   seededCatalog(),
		Pricing:   pricing.Calculator{PointsEarningRate: 1},
		Loyalty:   ledger,
		Recurring: rec,
		Publisher: pub,
	})

	sess := bookableSession()
	sess.Draft.RecurringFrequency = "monthly"

	result, err := svc.Submit(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "appt-1", result.AppointmentID)
	assert.Equal(t, "cust-1", result.CustomerID)
	assert.Contains(t, result.EventLink, "calendar.google.com")

	// Phone lands normalized, total priced from the catalog.
	assert.Equal(t, "4235550142", repo.customer.Phone)
	require.NotNil(t, repo.record)
	assert.Equal(t, 12000, repo.record.TotalCents)
	require.NotNil(t, repo.record.ScheduledAt)

	assert.Equal(t, []int{120}, ledger.awards)
	assert.Equal(t, "monthly", rec.frequency)

	require.Len(t, pub.confirmations, 1)
	conf := pub.confirmations[0]
	assert.Equal(t, "appt-1", conf.AppointmentID)
	assert.True(t, conf.SMSConsent)
	assert.Equal(t, []string{"2021 Toyota Camry"}, conf.Vehicles)
}

func TestSubmitDeductsValidatedRedemption(t *testing.T) {
	repo := &stubRepo{}
	ledger := &pointsLedger{}

	svc := NewService(ServiceConfig{
		Repo:    repo,
		Catalog: seededCatalog(),
		Pricing: pricing.Calculator{PointsEarningRate: 1},
		Loyalty: ledger,
	})

	sess := bookableSession()
	sess.Draft.PendingReward = &loyalty.Reward{ID: "rw-1", Name: "Free Wipe", PointsCost: 500}
	sess.Draft.RewardStatus = &loyalty.ValidationStatus{Validated: true, CanRedeem: true}

	_, err := svc.Submit(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, []int{120, -500}, ledger.awards)
	assert.Equal(t, "rw-1", repo.record.RewardID)
}

func TestSubmitFallbackBookingHasNoEventLink(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(ServiceConfig{
		Repo:    repo,
		Catalog: seededCatalog(),
		Pricing: pricing.Calculator{PointsEarningRate: 1},
	})

	sess := bookableSession()
	sess.Draft.TimeSlot = ""
	sess.Draft.PreferredWindow = wizard.WindowMorning
	sess.Draft.NeedsTimeConfirmation = true

	result, err := svc.Submit(context.Background(), sess)
	require.NoError(t, err)
	assert.Empty(t, result.EventLink)
	assert.Nil(t, repo.record.ScheduledAt)
	assert.True(t, repo.record.NeedsTimeConfirmation)
	assert.Equal(t, "morning", repo.record.PreferredWindow)
}

func TestSubmitRejectsIncompleteDraft(t *testing.T) {
	svc := NewService(ServiceConfig{
		Repo:    &stubRepo{},
		Catalog: seededCatalog(),
		Pricing: pricing.Calculator{PointsEarningRate: 1},
	})

	sess := bookableSession()
	sess.Draft.SMSConsent = false

	_, err := svc.Submit(context.Background(), sess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMS consent")
}

func TestSubmitRepoFailureSurfaces(t *testing.T) {
	pub := &capturedPublisher{}
	svc := NewService(ServiceConfig{
		Repo:      &stubRepo{err: assert.AnError},
		Catalog:   seededCatalog(),
		Pricing:   pricing.Calculator{PointsEarningRate: 1},
		Publisher: pub,
	})

	_, err := svc.Submit(context.Background(), bookableSession())
	require.Error(t, err)
	assert.Empty(t, pub.confirmations)
}
