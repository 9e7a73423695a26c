package catalog

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresListServices(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{
		"id", "name", "price_range", "description", "duration", "duration_hours", "base_price_cents", "category", "active",
	}).AddRow(int64(1), "Interior Detail", "$150-200", "Full interior", "3-4 hours", 3.5, 15000, "interior", true)

	mock.ExpectQuery("SELECT .+ FROM services WHERE active").WillReturnRows(rows)

	repo := NewPostgresRepository(mock)
	services, err := repo.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Interior Detail", services[0].Name)
	assert.Equal(t, 15000, services[0].BasePriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetServiceByNameNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM services WHERE name").
		WithArgs("Ghost Wash").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "price_range", "description", "duration", "duration_hours", "base_price_cents", "category", "active",
		}))

	repo := NewPostgresRepository(mock)
	_, err = repo.GetServiceByName(context.Background(), "Ghost Wash")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestPostgresUpdateService(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	price := "$275-325"
	active := true
	mock.ExpectExec("UPDATE services SET").
		WithArgs(int64(3), &price, (*string)(nil), (*int)(nil), &active).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepository(mock)
	err = repo.UpdateService(context.Background(), 3, ServiceUpdate{PriceRange: &price, Active: &active})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateServiceMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE services SET").
		WithArgs(int64(99), (*string)(nil), (*string)(nil), (*int)(nil), (*bool)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)
	err = repo.UpdateService(context.Background(), 99, ServiceUpdate{})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
