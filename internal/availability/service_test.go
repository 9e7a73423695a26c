package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

type stubBooked struct {
	starts []time.Time
	err    error
}

func (s stubBooked) BookedStarts(_ context.Context, _, _ time.Time) ([]time.Time, error) {
	return s.starts, s.err
}

// monday pins tests to a known weekday morning.
var monday = time.Date(2026, 9, 7, 7, 0, 0, 0, time.UTC)

func newTestService(booked BookedSource) *Service {
	svc := NewService(booked, Schedule{
		OpenHour:      8,
		CloseHour:     12,
		SlotInterval:  2 * time.Hour,
		LookaheadDays: 3,
	}, logging.Default())
	svc.now = func() time.Time { return monday }
	return svc
}

func TestAvailableSlotsSkipsWeekendsAndPast(t *testing.T) {
	svc := newTestService(stubBooked{})

	res, err := svc.AvailableSlots(context.Background())
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)

	for _, slot := range res.Slots {
		wd := slot.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		assert.True(t, slot.After(monday), "slot %s must be in the future", slot)
	}
	// Mon/Tue/Wed at 8 and 10: 6 slots total.
	assert.Len(t, res.Slots, 6)
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	bookedAt := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	svc := newTestService(stubBooked{starts: []time.Time{bookedAt}})

	res, err := svc.AvailableSlots(context.Background())
	require.NoError(t, err)
	for _, slot := range res.Slots {
		assert.NotEqual(t, bookedAt, slot.UTC())
	}
	assert.Len(t, res.Slots, 5)
}

func TestAvailableSlotsFallbackWhenFullyBooked(t *testing.T) {
	var everything []time.Time
	for day := 0; day < 3; day++ {
		date := monday.AddDate(0, 0, day)
		for _, hour := range []int{8, 10} {
			everything = append(everything, time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC))
		}
	}
	svc := newTestService(stubBooked{starts: everything})

	res, err := svc.AvailableSlots(context.Background())
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Empty(t, res.Slots)
}

func TestGroupByDay(t *testing.T) {
	slots := []time.Time{
		time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
	}

	byDay, days := GroupByDay(slots)

	assert.Equal(t, []string{"2026-09-07", "2026-09-08"}, days)
	assert.Len(t, byDay["2026-09-07"], 2)
	assert.Len(t, byDay["2026-09-08"], 1)
}
