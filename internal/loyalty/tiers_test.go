package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, "Bronze"},
		{199, "Bronze"},
		{200, "Silver"},
		{499, "Silver"},
		{500, "Gold"},
		{999, "Gold"},
		{1000, "Platinum"},
		{5000, "Platinum"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.points).Name, "points=%d", tt.points)
	}
}

func TestAccountFor(t *testing.T) {
	acct := AccountFor("c1", 450)
	assert.Equal(t, "Silver", acct.Tier)
	assert.Equal(t, "Gold", acct.NextTier)
	assert.Equal(t, 50, acct.PointsToNext)

	top := AccountFor("c2", 1500)
	assert.Equal(t, "Platinum", top.Tier)
	assert.Empty(t, top.NextTier)
	assert.Zero(t, top.PointsToNext)
}
