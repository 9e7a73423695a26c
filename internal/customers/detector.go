package customers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// DefaultQuietPeriod is how long phone input must stay unchanged before a
// lookup fires.
const DefaultQuietPeriod = 500 * time.Millisecond

// MatchFunc receives a completed lookup for a session key. match is nil when
// the phone is unknown.
type MatchFunc func(key string, match *Match)

// Detector debounces per-session phone input and fires a returning-customer
// lookup once the input settles at exactly ten digits. Each keystroke bumps
// a generation counter; a lookup result is applied only when its generation
// is still current, so a stale in-flight response can never clobber newer
// input.
type Detector struct {
	repo        Repository
	quiet       time.Duration
	historyMax  int
	onMatch     MatchFunc
	logger      *logging.Logger
	lookupsDone sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*pendingLookup
}

type pendingLookup struct {
	timer *time.Timer
	gen   uint64
}

// NewDetector creates a detector. onMatch runs on the detector's goroutine
// after the quiet period.
func NewDetector(repo Repository, quiet time.Duration, historyMax int, onMatch MatchFunc, logger *logging.Logger) *Detector {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if historyMax <= 0 {
		historyMax = 5
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Detector{
		repo:       repo,
		quiet:      quiet,
		historyMax: historyMax,
		onMatch:    onMatch,
		logger:     logger,
		pending:    map[string]*pendingLookup{},
	}
}

// Observe records a phone-input change for a session key. Anything other
// than exactly ten digits cancels the pending lookup.
func (d *Detector) Observe(key, rawPhone string) {
	digits := NormalizePhone(rawPhone)

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		p = &pendingLookup{}
		d.pending[key] = p
	}
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if len(digits) != 10 {
		return
	}

	gen := p.gen
	p.timer = time.AfterFunc(d.quiet, func() {
		d.fire(key, digits, gen)
	})
}

// Cancel drops any pending lookup for a session key.
func (d *Detector) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(d.pending, key)
	}
}

func (d *Detector) fire(key, digits string, gen uint64) {
	d.lookupsDone.Add(1)
	defer d.lookupsDone.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A failed lookup still notifies as a miss; the session must never be
	// left waiting on a result that is no longer coming.
	match, err := d.Lookup(ctx, digits)
	if err != nil && !errors.Is(err, ErrNotFound) {
		d.logger.Error("phone lookup failed", "error", err)
		match = nil
	}

	d.mu.Lock()
	p, ok := d.pending[key]
	stale := !ok || p.gen != gen
	d.mu.Unlock()
	if stale {
		return
	}

	if d.onMatch != nil {
		d.onMatch(key, match)
	}
}

// Lookup performs an immediate (undebounced) returning-customer lookup.
func (d *Detector) Lookup(ctx context.Context, phoneDigits string) (*Match, error) {
	customer, err := d.repo.GetByPhone(ctx, phoneDigits)
	if err != nil {
		return nil, err
	}

	past, err := d.repo.ListPastAppointments(ctx, customer.ID, d.historyMax)
	if err != nil {
		d.logger.Error("past appointments lookup failed", "error", err, "customer_id", customer.ID)
		past = nil
	}

	match := &Match{Customer: *customer, PastAppointments: past}
	if len(past) > 0 {
		recent := past[0]
		match.RecentAppointment = &recent
	}
	return match, nil
}

// Wait blocks until in-flight lookups finish; used by tests.
func (d *Detector) Wait() {
	d.lookupsDone.Wait()
}
