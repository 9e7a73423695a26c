// Package availability produces bookable time slots from the mobile crew's
// working hours minus already-booked appointments, and degrades to a
// fallback mode when no live slots exist.
package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// DayFormat is the calendar-day grouping key format.
const DayFormat = "2006-01-02"

// BookedSource lists appointment start times already taken.
type BookedSource interface {
	BookedStarts(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// Schedule describes the crew's bookable window.
type Schedule struct {
	OpenHour      int
	CloseHour     int
	SlotInterval  time.Duration
	LookaheadDays int
}

// Service computes availability.
type Service struct {
	booked   BookedSource
	schedule Schedule
	logger   *logging.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates an availability service.
func NewService(booked BookedSource, schedule Schedule, logger *logging.Logger) *Service {
	if schedule.SlotInterval <= 0 {
		schedule.SlotInterval = 90 * time.Minute
	}
	if schedule.LookaheadDays <= 0 {
		schedule.LookaheadDays = 14
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{booked: booked, schedule: schedule, logger: logger, now: time.Now}
}

// Result is an availability lookup outcome. UsedFallback is set when zero
// live slots exist and the caller should degrade to a raw date picker with
// deferred time confirmation.
type Result struct {
	Slots        []time.Time
	UsedFallback bool
}

// AvailableSlots returns open slots for the lookahead window. Weekends and
// past times are never offered in the live branch.
func (s *Service) AvailableSlots(ctx context.Context) (*Result, error) {
	now := s.now()
	from := now.Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, s.schedule.LookaheadDays)

	taken := map[time.Time]bool{}
	if s.booked != nil {
		starts, err := s.booked.BookedStarts(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("availability: load booked starts: %w", err)
		}
		for _, t := range starts {
			taken[t.UTC().Truncate(time.Minute)] = true
		}
	}

	var slots []time.Time
	for day := 0; day < s.schedule.LookaheadDays; day++ {
		date := now.AddDate(0, 0, day)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		open := time.Date(date.Year(), date.Month(), date.Day(), s.schedule.OpenHour, 0, 0, 0, date.Location())
		close := time.Date(date.Year(), date.Month(), date.Day(), s.schedule.CloseHour, 0, 0, 0, date.Location())
		for slot := open; slot.Before(close); slot = slot.Add(s.schedule.SlotInterval) {
			if !slot.After(now) {
				continue
			}
			if taken[slot.UTC().Truncate(time.Minute)] {
				continue
			}
			slots = append(slots, slot)
		}
	}

	if len(slots) == 0 {
		return &Result{UsedFallback: true}, nil
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return &Result{Slots: slots}, nil
}

// GroupByDay buckets slots by calendar date. The second return value is the
// sorted set of unique day keys, the calendar's enabled-date predicate.
func GroupByDay(slots []time.Time) (map[string][]time.Time, []string) {
	byDay := map[string][]time.Time{}
	for _, slot := range slots {
		key := slot.Format(DayFormat)
		byDay[key] = append(byDay[key], slot)
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	return byDay, days
}
