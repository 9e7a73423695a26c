package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// perLensQuantity multiplies per-unit headlight pricing; vehicles have two lenses.
const perLensQuantity = 2

var (
	rangePattern   = regexp.MustCompile(`\$?\s*(\d+(?:\.\d{1,2})?)\s*-\s*\$?\s*(\d+(?:\.\d{1,2})?)`)
	perUnitPattern = regexp.MustCompile(`(?i)\$?\s*(\d+(?:\.\d{1,2})?)\s*(?:per|/)\s*lens`)
	singlePattern  = regexp.MustCompile(`\$?\s*(\d+(?:\.\d{1,2})?)`)
)

// ParsePriceRange extracts a price in cents from a human-entered display
// string such as "$50-75", "$30 per lens", or "$120". A hyphenated range
// takes the lower bound; a per-lens price is multiplied by two. Returns 0
// when nothing numeric can be found. Parsing display strings is lossy; rows
// should prefer the structured price column when present.
func ParsePriceRange(display string) int {
	display = strings.TrimSpace(display)
	if display == "" {
		return 0
	}

	if m := perUnitPattern.FindStringSubmatch(display); m != nil {
		return dollarsToCents(m[1]) * perLensQuantity
	}
	if m := rangePattern.FindStringSubmatch(display); m != nil {
		return dollarsToCents(m[1])
	}
	if m := singlePattern.FindStringSubmatch(display); m != nil {
		return dollarsToCents(m[1])
	}
	return 0
}

func dollarsToCents(s string) int {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(v*100 + 0.5)
}
