package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrServiceNotFound indicates the named service is not in the catalog.
var ErrServiceNotFound = errors.New("catalog: service not found")

// Repository provides access to the service and add-on catalog.
type Repository interface {
	ListServices(ctx context.Context) ([]Service, error)
	GetServiceByName(ctx context.Context, name string) (*Service, error)
	ListAddOns(ctx context.Context) ([]AddOnService, error)
	UpdateService(ctx context.Context, id int64, upd ServiceUpdate) error
}

// ServiceUpdate carries the mutable catalog fields. Nil fields are left
// unchanged.
type ServiceUpdate struct {
	PriceRange     *string `json:"priceRange"`
	Description    *string `json:"description"`
	BasePriceCents *int    `json:"basePriceCents"`
	Active         *bool   `json:"active"`
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository reads the catalog from Postgres.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository creates a catalog repository backed by a pgx pool.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("catalog: db required")
	}
	return &PostgresRepository{db: db}
}

const serviceColumns = `id, name, price_range, description, duration, duration_hours, base_price_cents, category, active`

// ListServices returns all active services in display order.
func (r *PostgresRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE active ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.PriceRange, &s.Description,
			&s.Duration, &s.DurationHours, &s.BasePriceCents, &s.Category, &s.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	return out, nil
}

// GetServiceByName matches a catalog entry by exact name. Name is the join
// key used when matching historical appointments back to the catalog.
func (r *PostgresRepository) GetServiceByName(ctx context.Context, name string) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE name = $1 AND active`, name).
		Scan(&s.ID, &s.Name, &s.PriceRange, &s.Description,
			&s.Duration, &s.DurationHours, &s.BasePriceCents, &s.Category, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get service %q: %w", name, err)
	}
	return &s, nil
}

// ListAddOns returns all active add-on services in server insertion order.
func (r *PostgresRepository) ListAddOns(ctx context.Context) ([]AddOnService, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, price_range, description, price_cents, active FROM addon_services WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list add-ons: %w", err)
	}
	defer rows.Close()

	var out []AddOnService
	for rows.Next() {
		var a AddOnService
		if err := rows.Scan(&a.ID, &a.Name, &a.PriceRange, &a.Description, &a.PriceCents, &a.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan add-on: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list add-ons: %w", err)
	}
	return out, nil
}

// UpdateService applies the non-nil fields of upd to a catalog row.
func (r *PostgresRepository) UpdateService(ctx context.Context, id int64, upd ServiceUpdate) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE services SET
			price_range = COALESCE($2, price_range),
			description = COALESCE($3, description),
			base_price_cents = COALESCE($4, base_price_cents),
			active = COALESCE($5, active)
		WHERE id = $1`,
		id, upd.PriceRange, upd.Description, upd.BasePriceCents, upd.Active)
	if err != nil {
		return fmt.Errorf("catalog: update service %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// InMemoryRepository holds a fixed catalog; used by tests and local dev.
type InMemoryRepository struct {
	mu       sync.RWMutex
	services []Service
	addOns   []AddOnService
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Seed replaces the catalog contents.
func (r *InMemoryRepository) Seed(services []Service, addOns []AddOnService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append([]Service(nil), services...)
	r.addOns = append([]AddOnService(nil), addOns...)
}

// ListServices returns the seeded services.
func (r *InMemoryRepository) ListServices(_ context.Context) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Service(nil), r.services...), nil
}

// GetServiceByName matches by exact name.
func (r *InMemoryRepository) GetServiceByName(_ context.Context, name string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.services {
		if s.Name == name {
			svc := s
			return &svc, nil
		}
	}
	return nil, ErrServiceNotFound
}

// ListAddOns returns the seeded add-ons.
func (r *InMemoryRepository) ListAddOns(_ context.Context) ([]AddOnService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]AddOnService(nil), r.addOns...), nil
}

// UpdateService applies the non-nil fields of upd to a seeded service.
func (r *InMemoryRepository) UpdateService(_ context.Context, id int64, upd ServiceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.services {
		if r.services[i].ID != id {
			continue
		}
		if upd.PriceRange != nil {
			r.services[i].PriceRange = *upd.PriceRange
		}
		if upd.Description != nil {
			r.services[i].Description = *upd.Description
		}
		if upd.BasePriceCents != nil {
			r.services[i].BasePriceCents = *upd.BasePriceCents
		}
		if upd.Active != nil {
			r.services[i].Active = *upd.Active
		}
		return nil
	}
	return ErrServiceNotFound
}
