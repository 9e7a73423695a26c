package loyalty

// Reward is a redeemable loyalty reward from the rewards portal.
type Reward struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PointsCost int    `json:"points"`
}

// CartItem is one priced line the eligibility check evaluates.
type CartItem struct {
	Name        string `json:"name"`
	AmountCents int    `json:"amountCents"`
	IsAddOn     bool   `json:"isAddOn"`
}

// ValidationStatus is the derived redemption state for a pending reward.
// It is recomputed from scratch on every cart or identity change, never
// merged into.
type ValidationStatus struct {
	Validated    bool   `json:"validated"`
	CanRedeem    bool   `json:"canRedeem"`
	Reason       string `json:"reason,omitempty"`
	IsValidating bool   `json:"isValidating,omitempty"`
}

// ReferralResult is a referral-code validation outcome.
type ReferralResult struct {
	IsValid bool   `json:"isValid"`
	Reward  string `json:"reward,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Account is a customer's loyalty standing.
type Account struct {
	CustomerID   string `json:"customerId"`
	Points       int    `json:"points"`
	Tier         string `json:"tier"`
	NextTier     string `json:"nextTier,omitempty"`
	PointsToNext int    `json:"pointsToNext,omitempty"`
}
