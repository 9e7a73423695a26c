package catalog

import "testing"

func TestParsePriceRange(t *testing.T) {
	tests := []struct {
		display string
		want    int
	}{
		{"$50-75", 5000},
		{"$50 - $75", 5000},
		{"50-75", 5000},
		{"$30 per lens", 6000},
		{"$30/lens", 6000},
		{"$120", 12000},
		{"$89.99", 8999},
		{"starting at $65", 6500},
		{"call for quote", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			if got := ParsePriceRange(tt.display); got != tt.want {
				t.Errorf("ParsePriceRange(%q) = %d, want %d", tt.display, got, tt.want)
			}
		})
	}
}

func TestBasePricePrefersStructuredColumn(t *testing.T) {
	s := Service{PriceRange: "$50-75", BasePriceCents: 9900}
	if got := s.BasePrice(); got != 9900 {
		t.Errorf("expected structured price 9900, got %d", got)
	}

	legacy := Service{PriceRange: "$50-75"}
	if got := legacy.BasePrice(); got != 5000 {
		t.Errorf("expected parsed fallback 5000, got %d", got)
	}
}
