package loyalty

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

func TestReferralCacheSingleLookup(t *testing.T) {
	repo := &stubRepo{referrals: map[string]ReferralCode{
		"FRIEND50": {Code: "FRIEND50", RewardDescription: "$10 off your first detail", Active: true},
	}}
	v := NewReferralValidator(repo, logging.Default())

	first := v.Validate(context.Background(), "  friend50 ")
	second := v.Validate(context.Background(), "FRIEND50")

	assert.Equal(t, 1, repo.lookups, "second validation must be served from cache")
	assert.Equal(t, first, second)
	assert.True(t, first.IsValid)
	assert.Equal(t, "$10 off your first detail", first.Reward)
}

func TestReferralUnknownCodeCached(t *testing.T) {
	repo := &stubRepo{}
	v := NewReferralValidator(repo, logging.Default())

	first := v.Validate(context.Background(), "NOPE")
	second := v.Validate(context.Background(), "nope")

	assert.False(t, first.IsValid)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.lookups)
}

func TestReferralInactiveCode(t *testing.T) {
	repo := &stubRepo{referrals: map[string]ReferralCode{
		"OLD": {Code: "OLD", Active: false},
	}}
	v := NewReferralValidator(repo, logging.Default())

	res := v.Validate(context.Background(), "old")
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Error, "expired")
}

func TestReferralTransientErrorNotCached(t *testing.T) {
	repo := &stubRepo{referralErr: errors.New("connection refused")}
	v := NewReferralValidator(repo, logging.Default())

	_ = v.Validate(context.Background(), "FRIEND50")
	_ = v.Validate(context.Background(), "FRIEND50")

	assert.Equal(t, 2, repo.lookups, "transient failures must retry storage")
}

func TestReferralEmptyCode(t *testing.T) {
	v := NewReferralValidator(&stubRepo{}, logging.Default())
	res := v.Validate(context.Background(), "   ")
	assert.False(t, res.IsValid)
	assert.Empty(t, res.Error)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeCode(" abc123 "))
}
