package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// SMSSender delivers a text message. The production implementation sits
// behind the business's SMS provider; local dev logs instead.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// StubSMSSender logs texts instead of sending them.
type StubSMSSender struct {
	logger *logging.Logger
}

func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

func (s *StubSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send text", "to", to, "body", body)
	return nil
}

func formatWhen(c Confirmation) string {
	if c.ScheduledAt != "" {
		if t, err := time.Parse(time.RFC3339, c.ScheduledAt); err == nil {
			return t.Format("Monday, January 2 at 3:04 PM")
		}
		return c.ScheduledAt
	}
	when := c.Date
	if c.PreferredWindow != "" && c.PreferredWindow != "anytime" {
		when += " (" + c.PreferredWindow + ")"
	}
	return when
}

func formatTotal(cents int) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// ConfirmationEmail renders the customer-facing confirmation.
func ConfirmationEmail(c Confirmation) EmailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", c.CustomerName)
	fmt.Fprintf(&b, "Your %s is booked for %s.\n\n", c.ServiceName, formatWhen(c))
	if c.NeedsTimeConfirmation {
		b.WriteString("We'll text you shortly to confirm the exact arrival time.\n\n")
	}
	fmt.Fprintf(&b, "Location: %s\n", c.Address)
	if len(c.Vehicles) > 0 {
		fmt.Fprintf(&b, "Vehicle(s): %s\n", strings.Join(c.Vehicles, ", "))
	}
	if len(c.AddOns) > 0 {
		fmt.Fprintf(&b, "Add-ons: %s\n", strings.Join(c.AddOns, ", "))
	}
	fmt.Fprintf(&b, "Total: %s\n", formatTotal(c.TotalCents))
	if c.PointsEarned > 0 {
		fmt.Fprintf(&b, "Loyalty points earned: %d\n", c.PointsEarned)
	}
	if c.EventLink != "" {
		fmt.Fprintf(&b, "\nAdd it to your calendar: %s\n", c.EventLink)
	}
	b.WriteString("\nSee you soon!\nClean Machine Auto Detailing")

	return EmailMessage{
		To:      c.CustomerEmail,
		ToName:  c.CustomerName,
		Subject: fmt.Sprintf("Booking confirmed: %s on %s", c.ServiceName, formatWhen(c)),
		Body:    b.String(),
	}
}

// OwnerAlertEmail renders the internal new-booking alert.
func OwnerAlertEmail(c Confirmation, ownerEmail string) EmailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "New booking %s\n\n", c.AppointmentID)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", c.CustomerName, c.CustomerPhone)
	fmt.Fprintf(&b, "Service: %s\n", c.ServiceName)
	fmt.Fprintf(&b, "When: %s\n", formatWhen(c))
	if c.NeedsTimeConfirmation {
		b.WriteString("NEEDS TIME CONFIRMATION: customer picked a day only, text them to settle the slot.\n")
	}
	fmt.Fprintf(&b, "Where: %s\n", c.Address)
	fmt.Fprintf(&b, "Total: %s\n", formatTotal(c.TotalCents))

	return EmailMessage{
		To:      ownerEmail,
		Subject: fmt.Sprintf("New booking: %s, %s", c.CustomerName, formatWhen(c)),
		Body:    b.String(),
	}
}

// ConfirmationSMS renders the short text-message confirmation.
func ConfirmationSMS(c Confirmation) string {
	msg := fmt.Sprintf("Clean Machine: your %s is booked for %s.", c.ServiceName, formatWhen(c))
	if c.NeedsTimeConfirmation {
		msg += " We'll text shortly to confirm the exact time."
	}
	return msg
}
