package loyalty

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// ReferralValidator checks referral codes against storage, memoizing by
// normalized code so each code is looked up at most once per validator
// lifetime. Results are never invalidated except by constructing a new
// validator.
type ReferralValidator struct {
	repo   Repository
	logger *logging.Logger

	mu    sync.Mutex
	cache map[string]ReferralResult
}

// NewReferralValidator creates a referral validator.
func NewReferralValidator(repo Repository, logger *logging.Logger) *ReferralValidator {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReferralValidator{
		repo:   repo,
		logger: logger,
		cache:  map[string]ReferralResult{},
	}
}

// NormalizeCode canonicalizes a referral code: trimmed, upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a referral code. An empty code is invalid but carries no
// error text; invalid codes never block booking, they just drop the referral
// from the payload.
func (v *ReferralValidator) Validate(ctx context.Context, code string) ReferralResult {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return ReferralResult{IsValid: false}
	}

	v.mu.Lock()
	if cached, ok := v.cache[normalized]; ok {
		v.mu.Unlock()
		return cached
	}
	v.mu.Unlock()

	result, transient := v.lookup(ctx, normalized)

	// Transient failures are not cached; a retry should hit storage again.
	if !transient {
		v.mu.Lock()
		v.cache[normalized] = result
		v.mu.Unlock()
	}
	return result
}

func (v *ReferralValidator) lookup(ctx context.Context, normalized string) (ReferralResult, bool) {
	ref, err := v.repo.GetReferralCode(ctx, normalized)
	if errors.Is(err, ErrReferralNotFound) {
		return ReferralResult{IsValid: false, Error: "referral code not recognized"}, false
	}
	if err != nil {
		v.logger.Error("referral lookup failed", "error", err, "code", normalized)
		return ReferralResult{IsValid: false, Error: "referral lookup unavailable"}, true
	}
	if !ref.Active {
		return ReferralResult{IsValid: false, Error: "referral code expired"}, false
	}
	return ReferralResult{IsValid: true, Reward: ref.RewardDescription}, false
}
