package catalog

import (
	"sort"
	"strings"
)

// recommendationRules maps a service category to the add-on names worth
// surfacing first. An explicit table, keyed on the stored category column,
// so renaming a display name cannot silently break recommendations.
var recommendationRules = map[string][]string{
	"interior": {
		"Leather Conditioning",
		"Pet Hair Removal",
		"Odor Elimination",
		"Fabric Protection",
	},
	"exterior": {
		"Ceramic Spray Sealant",
		"Headlight Restoration",
		"Rain Repellent Treatment",
		"Wheel Deep Clean",
	},
	"full": {
		"Leather Conditioning",
		"Ceramic Spray Sealant",
		"Engine Bay Cleaning",
	},
}

// RecommendAddOns marks and orders add-ons for a selected service:
// recommended items first, each group keeping server insertion order.
func RecommendAddOns(selected Service, addOns []AddOnService) []AddOnService {
	recommended := map[string]bool{}
	for _, name := range recommendationRules[strings.ToLower(selected.Category)] {
		recommended[name] = true
	}

	out := make([]AddOnService, len(addOns))
	copy(out, addOns)
	for i := range out {
		out[i].Recommended = recommended[out[i].Name]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Recommended && !out[j].Recommended
	})
	return out
}
