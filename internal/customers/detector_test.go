package customers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

type fakeRepo struct {
	mu        sync.Mutex
	customers map[string]Customer
	history   map[string][]PastAppointment
	lookups   int
}

func (f *fakeRepo) GetByPhone(_ context.Context, digits string) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	c, ok := f.customers[digits]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) ListPastAppointments(_ context.Context, customerID string, limit int) ([]PastAppointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	past := f.history[customerID]
	if len(past) > limit {
		past = past[:limit]
	}
	return past, nil
}

func (f *fakeRepo) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

type matchRecorder struct {
	mu      sync.Mutex
	matches []*Match
}

func (m *matchRecorder) record(_ string, match *Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = append(m.matches, match)
}

func (m *matchRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "4235551234", NormalizePhone("(423) 555-1234"))
	assert.Equal(t, "4235551234", NormalizePhone("+1 423 555 1234"))
	assert.Equal(t, "423555", NormalizePhone("423-555"))
}

func TestDetectorFiresAfterQuietPeriod(t *testing.T) {
	repo := &fakeRepo{customers: map[string]Customer{
		"4235551234": {ID: "c1", Name: "Jess", Phone: "4235551234"},
	}}
	rec := &matchRecorder{}
	d := NewDetector(repo, 20*time.Millisecond, 5, rec.record, logging.Default())

	d.Observe("session-1", "(423) 555-1234")
	time.Sleep(80 * time.Millisecond)
	d.Wait()

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "Jess", rec.matches[0].Customer.Name)
}

func TestDetectorIgnoresShortInput(t *testing.T) {
	repo := &fakeRepo{}
	rec := &matchRecorder{}
	d := NewDetector(repo, 10*time.Millisecond, 5, rec.record, logging.Default())

	d.Observe("session-1", "423555")
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, repo.lookupCount())
	assert.Zero(t, rec.count())
}

func TestDetectorDebouncesRapidEdits(t *testing.T) {
	repo := &fakeRepo{customers: map[string]Customer{
		"4235551234": {ID: "c1", Name: "Jess", Phone: "4235551234"},
	}}
	rec := &matchRecorder{}
	d := NewDetector(repo, 30*time.Millisecond, 5, rec.record, logging.Default())

	// Rapid edits within the quiet period collapse to one lookup.
	d.Observe("session-1", "4235551230")
	d.Observe("session-1", "4235551231")
	d.Observe("session-1", "4235551234")
	time.Sleep(100 * time.Millisecond)
	d.Wait()

	assert.Equal(t, 1, repo.lookupCount())
	require.Equal(t, 1, rec.count())
}

type failingRepo struct{}

func (failingRepo) GetByPhone(context.Context, string) (*Customer, error) {
	return nil, errors.New("db down")
}

func (failingRepo) ListPastAppointments(context.Context, string, int) ([]PastAppointment, error) {
	return nil, errors.New("db down")
}

func TestDetectorNotifiesMissOnLookupError(t *testing.T) {
	rec := &matchRecorder{}
	d := NewDetector(failingRepo{}, 10*time.Millisecond, 5, rec.record, logging.Default())

	d.Observe("session-1", "4235551234")
	time.Sleep(50 * time.Millisecond)
	d.Wait()

	require.Equal(t, 1, rec.count(), "a failed lookup must still settle the session")
	assert.Nil(t, rec.matches[0])
}

func TestDetectorStaleResultDropped(t *testing.T) {
	repo := &fakeRepo{customers: map[string]Customer{
		"4235551234": {ID: "c1", Name: "Jess", Phone: "4235551234"},
	}}
	rec := &matchRecorder{}
	d := NewDetector(repo, 20*time.Millisecond, 5, rec.record, logging.Default())

	d.Observe("session-1", "4235551234")
	time.Sleep(5 * time.Millisecond)
	// Edit back to a short number before the lookup fires.
	d.Observe("session-1", "423")
	time.Sleep(80 * time.Millisecond)
	d.Wait()

	assert.Zero(t, rec.count(), "result for the stale generation must not be applied")
}

func TestLookupBuildsMatchWithHistory(t *testing.T) {
	repo := &fakeRepo{
		customers: map[string]Customer{"4235551234": {ID: "c1", Name: "Jess"}},
		history: map[string][]PastAppointment{
			"c1": {
				{ID: "a2", ServiceName: "Interior Detail"},
				{ID: "a1", ServiceName: "Exterior Detail"},
			},
		},
	}
	d := NewDetector(repo, time.Millisecond, 5, nil, logging.Default())

	match, err := d.Lookup(context.Background(), "4235551234")
	require.NoError(t, err)
	require.NotNil(t, match.RecentAppointment)
	assert.Equal(t, "a2", match.RecentAppointment.ID)
	assert.Len(t, match.PastAppointments, 2)
}
