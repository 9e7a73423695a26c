package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// DefaultMinRedemptionCents is the redemption guardrail: rewards cannot be
// applied to carts under this total.
const DefaultMinRedemptionCents = 5000

// Checker decides whether a pending reward can be redeemed against a cart.
// With a known customer it validates against stored balances; without one it
// falls back to the local guardrail so the UI can show an estimate.
type Checker struct {
	repo               Repository
	MinRedemptionCents int
	logger             *logging.Logger
}

// NewChecker creates an eligibility checker.
func NewChecker(repo Repository, minRedemptionCents int, logger *logging.Logger) *Checker {
	if minRedemptionCents <= 0 {
		minRedemptionCents = DefaultMinRedemptionCents
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{repo: repo, MinRedemptionCents: minRedemptionCents, logger: logger}
}

// Validating is the pending status used while a customer identity lookup is
// still in flight, so the UI never flashes a false negative.
func Validating() ValidationStatus {
	return ValidationStatus{IsValidating: true}
}

// Check evaluates reward eligibility for a cart. customerID may be empty
// when the shopper has not been identified yet.
func (c *Checker) Check(ctx context.Context, customerID string, reward Reward, items []CartItem) ValidationStatus {
	return c.CheckWithTotal(ctx, customerID, reward, items, 0)
}

// CheckWithTotal is Check with a caller-priced cart total. totalCents wins
// over the item sum when positive; zero falls back to summing the items.
func (c *Checker) CheckWithTotal(ctx context.Context, customerID string, reward Reward, items []CartItem, totalCents int) ValidationStatus {
	guardrail := c.guardrail(items, totalCents)
	if !guardrail.CanRedeem {
		return guardrail
	}

	if customerID == "" || c.repo == nil {
		// Client-estimated: guardrail passed, final word comes at submission.
		return ValidationStatus{CanRedeem: true}
	}

	points, err := c.repo.GetCustomerPoints(ctx, customerID)
	if err != nil {
		c.logger.Error("eligibility: load points failed", "error", err, "customer_id", customerID)
		// Guardrail already passed; keep the booking flow open.
		return ValidationStatus{CanRedeem: true}
	}

	stored, err := c.repo.GetReward(ctx, reward.ID)
	if errors.Is(err, ErrRewardNotFound) {
		return ValidationStatus{Validated: true, CanRedeem: false, Reason: "this reward is no longer available"}
	}
	if err != nil {
		c.logger.Error("eligibility: load reward failed", "error", err, "reward_id", reward.ID)
		return ValidationStatus{CanRedeem: true}
	}

	if points < stored.PointsCost {
		return ValidationStatus{
			Validated: true,
			CanRedeem: false,
			Reason:    fmt.Sprintf("you need %d more points to redeem %s", stored.PointsCost-points, stored.Name),
		}
	}
	return ValidationStatus{Validated: true, CanRedeem: true}
}

// guardrail applies the local minimum-order rule: a non-add-on service must
// be in the cart and the total must meet the minimum.
func (c *Checker) guardrail(items []CartItem, totalCents int) ValidationStatus {
	if len(items) == 0 {
		return ValidationStatus{CanRedeem: false, Reason: "select a service to redeem this reward"}
	}

	total := 0
	hasService := false
	for _, item := range items {
		total += item.AmountCents
		if !item.IsAddOn {
			hasService = true
		}
	}
	if totalCents > 0 {
		total = totalCents
	}
	if !hasService {
		return ValidationStatus{CanRedeem: false, Reason: "rewards can't be applied to add-ons alone"}
	}
	if total < c.MinRedemptionCents {
		shortfall := float64(c.MinRedemptionCents-total) / 100
		minimum := float64(c.MinRedemptionCents) / 100
		return ValidationStatus{
			CanRedeem: false,
			Reason:    fmt.Sprintf("add $%.2f more to reach the $%.0f minimum order", shortfall, minimum),
		}
	}
	return ValidationStatus{CanRedeem: true}
}
