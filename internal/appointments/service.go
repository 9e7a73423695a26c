package appointments

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cleanmachine/detailing-platform/internal/catalog"
	"github.com/cleanmachine/detailing-platform/internal/customers"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/notify"
	"github.com/cleanmachine/detailing-platform/internal/observability/metrics"
	"github.com/cleanmachine/detailing-platform/internal/pricing"
	"github.com/cleanmachine/detailing-platform/internal/wizard"
	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

var bookTracer = otel.Tracer("cleanmachine/appointments")

// RecurringScheduler registers a repeat-service plan after booking.
type RecurringScheduler interface {
	Schedule(ctx context.Context, customerID, frequency, serviceName string) error
}

// ConfirmationPublisher enqueues post-booking notifications.
type ConfirmationPublisher interface {
	EnqueueConfirmation(ctx context.Context, c notify.Confirmation) error
}

// Service books finished sessions. The appointment insert is the only
// hard-fail step; loyalty, recurring plans, and notifications are
// best-effort once the row is committed.
type Service struct {
	repo      Repository
	catalog   catalog.Repository
	pricing   pricing.Calculator
	loyalty   loyalty.Repository
	recurring RecurringScheduler
	publisher ConfirmationPublisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// ServiceConfig carries the booking collaborators. Recurring, Publisher and
// Metrics are optional.
type ServiceConfig struct {
	Repo      Repository
	Catalog   catalog.Repository
	Pricing   pricing.Calculator
	Loyalty   loyalty.Repository
	Recurring RecurringScheduler
	Publisher ConfirmationPublisher
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
}

// NewService creates the booking service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      cfg.Repo,
		catalog:   cfg.Catalog,
		pricing:   cfg.Pricing,
		loyalty:   cfg.Loyalty,
		recurring: cfg.Recurring,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

var _ wizard.Submitter = (*Service)(nil)

// Submit books a finished session atomically, then runs the best-effort
// follow-ups.
func (s *Service) Submit(ctx context.Context, sess *wizard.Session) (*wizard.SubmitResult, error) {
	ctx, span := bookTracer.Start(ctx, "appointments.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.service", sess.Draft.ServiceName),
		attribute.Bool("booking.fallback", sess.Draft.NeedsTimeConfirmation),
	)

	if err := sess.ValidateForSubmit(); err != nil {
		return nil, err
	}
	d := sess.Draft

	svc, err := s.catalog.GetServiceByName(ctx, d.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve service: %w", err)
	}
	addOns, err := s.selectedAddOns(ctx, d.AddOnNames)
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve add-ons: %w", err)
	}
	conditions := make([][]string, len(d.Vehicles))
	for i, v := range d.Vehicles {
		conditions[i] = v.Conditions
	}
	quote := s.pricing.Compute(*svc, addOns, conditions)

	rec := recordFromDraft(d, quote.TotalCents)
	customer := CustomerUpsert{
		Name:    d.Name,
		Phone:   customers.NormalizePhone(d.Phone),
		Email:   d.Email,
		Address: d.Address,
	}
	appointmentID, customerID, err := s.repo.Book(ctx, customer, rec)
	if err != nil {
		s.metrics.ObserveBooking(d.ServiceName, "failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.appointment_id", appointmentID))
	s.metrics.ObserveBooking(d.ServiceName, "booked")
	if d.NeedsTimeConfirmation {
		s.metrics.ObserveFallbackBooking()
	}

	s.settleLoyalty(ctx, customerID, d, quote)
	s.scheduleRecurring(ctx, customerID, d)

	eventLink := EventLink(svc.Name, rec.ScheduledAt, svc.DurationHours, d.Address, d.AddOnNames)
	s.publishConfirmation(ctx, appointmentID, d, quote, eventLink)

	s.logger.Info("appointment booked",
		"appointment_id", appointmentID,
		"customer_id", customerID,
		"service", d.ServiceName,
		"total_cents", quote.TotalCents,
		"needs_time_confirmation", d.NeedsTimeConfirmation)

	return &wizard.SubmitResult{
		AppointmentID: appointmentID,
		CustomerID:    customerID,
		EventLink:     eventLink,
	}, nil
}

// settleLoyalty awards earned points and deducts a validated redemption.
// Failures are logged; the booking already stands.
func (s *Service) settleLoyalty(ctx context.Context, customerID string, d wizard.Draft, quote pricing.Quote) {
	if s.loyalty == nil {
		return
	}
	if quote.PointsEarned > 0 {
		if err := s.loyalty.AwardPoints(ctx, customerID, quote.PointsEarned); err != nil {
			s.logger.Error("failed to award loyalty points", "customer_id", customerID, "points", quote.PointsEarned, "error", err)
		}
	}
	if d.PendingReward != nil && d.RewardStatus != nil && d.RewardStatus.Validated && d.RewardStatus.CanRedeem {
		if err := s.loyalty.AwardPoints(ctx, customerID, -d.PendingReward.PointsCost); err != nil {
			s.logger.Error("failed to deduct redeemed points", "customer_id", customerID, "reward_id", d.PendingReward.ID, "error", err)
		}
	}
}

func (s *Service) scheduleRecurring(ctx context.Context, customerID string, d wizard.Draft) {
	if s.recurring == nil || d.RecurringFrequency == "" {
		return
	}
	if err := s.recurring.Schedule(ctx, customerID, d.RecurringFrequency, d.ServiceName); err != nil {
		s.logger.Warn("failed to schedule recurring service", "customer_id", customerID, "frequency", d.RecurringFrequency, "error", err)
	}
}

func (s *Service) publishConfirmation(ctx context.Context, appointmentID string, d wizard.Draft, quote pricing.Quote, eventLink string) {
	if s.publisher == nil {
		return
	}
	vehicles := make([]string, 0, len(d.Vehicles))
	for _, v := range d.Vehicles {
		vehicles = append(vehicles, fmt.Sprintf("%s %s %s", v.Year, v.Make, v.Model))
	}
	c := notify.Confirmation{
		AppointmentID:         appointmentID,
		CustomerName:          d.Name,
		CustomerEmail:         d.Email,
		CustomerPhone:         customers.NormalizePhone(d.Phone),
		SMSConsent:            d.SMSConsent,
		ServiceName:           d.ServiceName,
		AddOns:                d.AddOnNames,
		Vehicles:              vehicles,
		Address:               d.Address,
		ScheduledAt:           d.TimeSlot,
		Date:                  d.Date,
		PreferredWindow:       string(d.PreferredWindow),
		NeedsTimeConfirmation: d.NeedsTimeConfirmation,
		TotalCents:            quote.TotalCents,
		PointsEarned:          quote.PointsEarned,
		EventLink:             eventLink,
	}
	if err := s.publisher.EnqueueConfirmation(ctx, c); err != nil {
		s.metrics.ObserveNotification("booking_confirmation", "enqueue_failed")
		s.logger.Error("failed to enqueue booking confirmation", "appointment_id", appointmentID, "error", err)
		return
	}
	s.metrics.ObserveNotification("booking_confirmation", "enqueued")
}

func (s *Service) selectedAddOns(ctx context.Context, names []string) ([]catalog.AddOnService, error) {
	if len(names) == 0 {
		return nil, nil
	}
	all, err := s.catalog.ListAddOns(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []catalog.AddOnService
	for _, a := range all {
		if wanted[a.Name] {
			out = append(out, a)
		}
	}
	return out, nil
}

func recordFromDraft(d wizard.Draft, totalCents int) *Record {
	vehicles := make([]Vehicle, 0, len(d.Vehicles))
	for _, v := range d.Vehicles {
		vehicles = append(vehicles, Vehicle{
			Make:       v.Make,
			Model:      v.Model,
			Year:       v.Year,
			Color:      v.Color,
			Conditions: v.Conditions,
		})
	}

	var scheduledAt *time.Time
	if d.TimeSlot != "" {
		if t, err := time.Parse(time.RFC3339, d.TimeSlot); err == nil {
			utc := t.UTC()
			scheduledAt = &utc
		}
	}

	rewardID := ""
	if d.PendingReward != nil {
		rewardID = d.PendingReward.ID
	}
	referralCode := ""
	if d.Referral != nil && d.Referral.IsValid {
		referralCode = d.ReferralCode
	}

	return &Record{
		ServiceName:           d.ServiceName,
		AddOns:                d.AddOnNames,
		Vehicles:              vehicles,
		Address:               d.Address,
		Latitude:              d.Latitude,
		Longitude:             d.Longitude,
		AddressNeedsReview:    d.AddressNeedsReview,
		ScheduledAt:           scheduledAt,
		Date:                  d.Date,
		PreferredWindow:       string(d.PreferredWindow),
		NeedsTimeConfirmation: d.NeedsTimeConfirmation,
		Notes:                 d.Notes,
		SMSConsent:            d.SMSConsent,
		TotalCents:            totalCents,
		ReferralCode:          referralCode,
		RewardID:              rewardID,
	}
}
