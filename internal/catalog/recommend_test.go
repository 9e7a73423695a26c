package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendAddOns(t *testing.T) {
	interior := Service{Name: "Interior Detail", Category: "interior"}
	addOns := []AddOnService{
		{Name: "Headlight Restoration"},
		{Name: "Engine Bay Cleaning"},
		{Name: "Leather Conditioning"},
		{Name: "Pet Hair Removal"},
	}

	got := RecommendAddOns(interior, addOns)

	// Recommended first, insertion order preserved inside each group.
	assert.Equal(t, "Leather Conditioning", got[0].Name)
	assert.Equal(t, "Pet Hair Removal", got[1].Name)
	assert.True(t, got[0].Recommended)
	assert.True(t, got[1].Recommended)
	assert.Equal(t, "Headlight Restoration", got[2].Name)
	assert.False(t, got[2].Recommended)
	assert.Equal(t, "Engine Bay Cleaning", got[3].Name)
}

func TestRecommendAddOnsUnknownCategory(t *testing.T) {
	svc := Service{Name: "Fleet Wash", Category: "fleet"}
	addOns := []AddOnService{{Name: "Leather Conditioning"}, {Name: "Wheel Deep Clean"}}

	got := RecommendAddOns(svc, addOns)

	for i, a := range got {
		assert.False(t, a.Recommended)
		assert.Equal(t, addOns[i].Name, a.Name, "order must be untouched")
	}
}

func TestRecommendAddOnsDoesNotMutateInput(t *testing.T) {
	svc := Service{Name: "Exterior Detail", Category: "exterior"}
	addOns := []AddOnService{{Name: "Engine Bay Cleaning"}, {Name: "Ceramic Spray Sealant"}}

	_ = RecommendAddOns(svc, addOns)

	assert.Equal(t, "Engine Bay Cleaning", addOns[0].Name)
	assert.False(t, addOns[1].Recommended)
}
