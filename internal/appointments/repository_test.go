package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookCommitsCustomerAndAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	slot := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	rec := &Record{
		ServiceName: "Full Detail",
		AddOns:      []string{"Engine Bay Cleaning"},
		Vehicles:    []Vehicle{{Make: "Toyota", Model: "Camry", Year: "2021"}},
		Address:     "123 Main St",
		ScheduledAt: &slot,
		SMSConsent:  true,
		TotalCents:  12000,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO customers").
		WithArgs("Jordan Smith", "4235550142", "jordan@example.com", "123 Main St").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("cust-1"))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("appt-1"))
	mock.ExpectCommit()
	mock.ExpectRollback()

	repo := NewPostgresRepository(mock, nil)
	customer := CustomerUpsert{Name: "Jordan Smith", Phone: "4235550142", Email: "jordan@example.com", Address: "123 Main St"}

	appointmentID, customerID, err := repo.Book(context.Background(), customer, rec)
	require.NoError(t, err)
	assert.Equal(t, "appt-1", appointmentID)
	assert.Equal(t, "cust-1", customerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRollsBackOnInsertFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO customers").
		WithArgs("Jordan Smith", "4235550142", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("cust-1"))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewPostgresRepository(mock, nil)
	_, _, err = repo.Book(context.Background(), CustomerUpsert{Name: "Jordan Smith", Phone: "4235550142"}, &Record{
		ServiceName: "Full Detail",
		Vehicles:    []Vehicle{{Make: "Toyota", Model: "Camry", Year: "2021"}},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
