package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Repository persists bookings.
type Repository interface {
	Book(ctx context.Context, customer CustomerUpsert, rec *Record) (appointmentID, customerID string, err error)
}

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository writes bookings in a single transaction: the customer
// upsert and the appointment insert land together or not at all.
type PostgresRepository struct {
	db     db
	logger *logging.Logger
}

// NewPostgresRepository creates an appointments repository.
func NewPostgresRepository(db db, logger *logging.Logger) *PostgresRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Book upserts the customer by phone and inserts the appointment.
func (r *PostgresRepository) Book(ctx context.Context, customer CustomerUpsert, rec *Record) (string, string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", "", fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var customerID string
	err = tx.QueryRow(ctx,
		`INSERT INTO customers (name, phone, email, address)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (phone) DO UPDATE SET
		   name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name),
		   email = COALESCE(NULLIF(EXCLUDED.email, ''), customers.email),
		   address = COALESCE(NULLIF(EXCLUDED.address, ''), customers.address)
		 RETURNING id`,
		customer.Name, customer.Phone, customer.Email, customer.Address).
		Scan(&customerID)
	if err != nil {
		return "", "", fmt.Errorf("appointments: upsert customer: %w", err)
	}

	vehiclesJSON, err := json.Marshal(rec.Vehicles)
	if err != nil {
		return "", "", fmt.Errorf("appointments: encode vehicles: %w", err)
	}
	var first Vehicle
	if len(rec.Vehicles) > 0 {
		first = rec.Vehicles[0]
	}

	var appointmentID string
	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (
		   customer_id, service_name, addons,
		   vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicles,
		   address, latitude, longitude, address_needs_review,
		   scheduled_at, service_date, preferred_window, needs_time_confirmation,
		   notes, sms_consent, total_cents, referral_code, reward_id, status, created_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		 RETURNING id`,
		customerID, rec.ServiceName, rec.AddOns,
		first.Make, first.Model, first.Year, first.Color, vehiclesJSON,
		rec.Address, rec.Latitude, rec.Longitude, rec.AddressNeedsReview,
		rec.ScheduledAt, nullableDate(rec.Date), rec.PreferredWindow, rec.NeedsTimeConfirmation,
		rec.Notes, rec.SMSConsent, rec.TotalCents, rec.ReferralCode, rec.RewardID, "scheduled", time.Now().UTC()).
		Scan(&appointmentID)
	if err != nil {
		return "", "", fmt.Errorf("appointments: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", "", fmt.Errorf("appointments: commit: %w", err)
	}
	return appointmentID, customerID, nil
}

func nullableDate(date string) any {
	if date == "" {
		return nil
	}
	return date
}
