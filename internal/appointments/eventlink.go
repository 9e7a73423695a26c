package appointments

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const calendarTimeLayout = "20060102T150405Z"

// EventLink builds a Google Calendar template URL for a booked slot. It
// returns empty when no concrete time was picked; fallback bookings get
// their calendar invite once the time is settled over text.
func EventLink(serviceName string, start *time.Time, durationHours float64, address string, addOns []string) string {
	if start == nil {
		return ""
	}
	if durationHours <= 0 {
		durationHours = 2
	}
	end := start.Add(time.Duration(durationHours * float64(time.Hour)))

	details := "Mobile detailing appointment."
	if len(addOns) > 0 {
		details += " Add-ons: " + strings.Join(addOns, ", ") + "."
	}

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", fmt.Sprintf("Clean Machine: %s", serviceName))
	q.Set("dates", start.UTC().Format(calendarTimeLayout)+"/"+end.UTC().Format(calendarTimeLayout))
	q.Set("location", address)
	q.Set("details", details)
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
