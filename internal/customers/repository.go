package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound indicates no customer matches the phone number.
var ErrNotFound = errors.New("customers: not found")

// Repository looks up returning customers and their history.
type Repository interface {
	GetByPhone(ctx context.Context, phoneDigits string) (*Customer, error)
	ListPastAppointments(ctx context.Context, customerID string, limit int) ([]PastAppointment, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads customers from Postgres.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository creates a customer repository backed by a pgx pool.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("customers: db required")
	}
	return &PostgresRepository{db: db}
}

// GetByPhone matches on the normalized 10-digit phone column.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phoneDigits string) (*Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx,
		`SELECT id, name, phone, COALESCE(email, ''), COALESCE(address, '')
		 FROM customers WHERE phone = $1`, phoneDigits).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customers: get by phone: %w", err)
	}
	return &c, nil
}

// ListPastAppointments returns the most recent completed appointments.
func (r *PostgresRepository) ListPastAppointments(ctx context.Context, customerID string, limit int) ([]PastAppointment, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, service_name, COALESCE(vehicle_make, ''), COALESCE(vehicle_model, ''),
		        COALESCE(vehicle_year, ''), COALESCE(vehicle_color, ''), COALESCE(address, ''), scheduled_at
		 FROM appointments
		 WHERE customer_id = $1 AND status = 'completed'
		 ORDER BY scheduled_at DESC
		 LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("customers: list past appointments: %w", err)
	}
	defer rows.Close()

	var out []PastAppointment
	for rows.Next() {
		var a PastAppointment
		if err := rows.Scan(&a.ID, &a.ServiceName, &a.VehicleMake, &a.VehicleModel,
			&a.VehicleYear, &a.VehicleColor, &a.Address, &a.ScheduledAt); err != nil {
			return nil, fmt.Errorf("customers: scan past appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customers: past appointments: %w", err)
	}
	return out, nil
}

// NormalizePhone strips everything but digits and drops a leading country 1.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}
