package loyalty

// Tier is a loyalty level reached at a lifetime points threshold.
type Tier struct {
	Name      string
	MinPoints int
}

// tiers in ascending threshold order.
var tiers = []Tier{
	{Name: "Bronze", MinPoints: 0},
	{Name: "Silver", MinPoints: 200},
	{Name: "Gold", MinPoints: 500},
	{Name: "Platinum", MinPoints: 1000},
}

// TierFor returns the highest tier whose threshold the balance meets.
func TierFor(points int) Tier {
	current := tiers[0]
	for _, t := range tiers {
		if points >= t.MinPoints {
			current = t
		}
	}
	return current
}

// NextTier returns the next tier above the balance, or false at the top.
func NextTier(points int) (Tier, bool) {
	for _, t := range tiers {
		if points < t.MinPoints {
			return t, true
		}
	}
	return Tier{}, false
}

// AccountFor assembles a customer's loyalty standing for display.
func AccountFor(customerID string, points int) Account {
	acct := Account{
		CustomerID: customerID,
		Points:     points,
		Tier:       TierFor(points).Name,
	}
	if next, ok := NextTier(points); ok {
		acct.NextTier = next.Name
		acct.PointsToNext = next.MinPoints - points
	}
	return acct
}
