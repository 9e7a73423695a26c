// Package recurring stores repeat-service plans. Enrollment is best-effort:
// a booking must never fail because the plan insert did.
package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Frequencies accepted for a plan.
const (
	FrequencyWeekly    = "weekly"
	FrequencyBiweekly  = "biweekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
)

var validFrequencies = map[string]bool{
	FrequencyWeekly:    true,
	FrequencyBiweekly:  true,
	FrequencyMonthly:   true,
	FrequencyQuarterly: true,
}

// ErrInvalidFrequency rejects plans outside the supported cadences.
var ErrInvalidFrequency = fmt.Errorf("recurring: invalid frequency")

// Plan is one recurring-service enrollment.
type Plan struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	ServiceName string    `json:"serviceName"`
	Frequency   string    `json:"frequency"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service writes plans to Postgres.
type Service struct {
	db     db
	logger *logging.Logger
}

// NewService creates the recurring plans service.
func NewService(db db, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, logger: logger}
}

// Schedule enrolls a customer. An existing active plan for the same service
// is replaced by the new cadence.
func (s *Service) Schedule(ctx context.Context, customerID, frequency, serviceName string) error {
	if !validFrequencies[frequency] {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}
	if customerID == "" || serviceName == "" {
		return fmt.Errorf("recurring: customer and service are required")
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO recurring_plans (customer_id, service_name, frequency, active)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (customer_id, service_name)
		 DO UPDATE SET frequency = EXCLUDED.frequency, active = TRUE`,
		customerID, serviceName, frequency)
	if err != nil {
		return fmt.Errorf("recurring: schedule plan: %w", err)
	}

	s.logger.Info("recurring plan scheduled", "customer_id", customerID, "service", serviceName, "frequency", frequency)
	return nil
}

// Cancel deactivates a plan.
func (s *Service) Cancel(ctx context.Context, customerID, serviceName string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE recurring_plans SET active = FALSE WHERE customer_id = $1 AND service_name = $2`,
		customerID, serviceName)
	if err != nil {
		return fmt.Errorf("recurring: cancel plan: %w", err)
	}
	return nil
}
