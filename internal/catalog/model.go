package catalog

// Service is a core detailing package offered to customers.
type Service struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	PriceRange     string  `json:"priceRange"`
	Description    string  `json:"description"`
	Duration       string  `json:"duration"`
	DurationHours  float64 `json:"durationHours"`
	BasePriceCents int     `json:"basePriceCents"`
	Category       string  `json:"category"`
	Active         bool    `json:"active"`
}

// AddOnService is an optional supplementary service layered onto a core service.
type AddOnService struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PriceRange  string `json:"priceRange"`
	Description string `json:"description"`
	PriceCents  int    `json:"priceCents"`
	Active      bool   `json:"active"`

	// Recommended is derived per selected service, never stored.
	Recommended bool `json:"recommended"`
}

// BasePrice returns the numeric price for a service in cents. The structured
// column wins; the display-string parser is the fallback for legacy rows that
// only carry a human-entered range.
func (s Service) BasePrice() int {
	if s.BasePriceCents > 0 {
		return s.BasePriceCents
	}
	return ParsePriceRange(s.PriceRange)
}

// Price returns the numeric price for an add-on in cents, falling back to the
// display string the same way Service.BasePrice does.
func (a AddOnService) Price() int {
	if a.PriceCents > 0 {
		return a.PriceCents
	}
	return ParsePriceRange(a.PriceRange)
}
