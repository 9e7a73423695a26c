package recurring

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleUpsertsPlan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO recurring_plans").
		WithArgs("cust-1", "Full Detail", FrequencyMonthly).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, nil)
	require.NoError(t, svc.Schedule(context.Background(), "cust-1", FrequencyMonthly, "Full Detail"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRejectsUnknownFrequency(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewService(mock, nil)
	err = svc.Schedule(context.Background(), "cust-1", "fortnightly", "Full Detail")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestCancelDeactivatesPlan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE recurring_plans SET active = FALSE").
		WithArgs("cust-1", "Full Detail").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock, nil)
	require.NoError(t, svc.Cancel(context.Background(), "cust-1", "Full Detail"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
