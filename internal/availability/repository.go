package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresBookedSource reads taken slots from the appointments table.
type PostgresBookedSource struct {
	db db
}

// NewPostgresBookedSource creates a booked-slot source backed by a pgx pool.
func NewPostgresBookedSource(db db) *PostgresBookedSource {
	if db == nil {
		panic("availability: db required")
	}
	return &PostgresBookedSource{db: db}
}

// BookedStarts lists confirmed appointment start times inside [from, to).
func (r *PostgresBookedSource) BookedStarts(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT scheduled_at FROM appointments
		 WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status != 'cancelled'`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("availability: query booked starts: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("availability: scan booked start: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: booked starts: %w", err)
	}
	return out, nil
}
