package webchat

import "strings"

// Rule maps trigger keywords to a canned answer. Rules are evaluated in
// order; the first rule with any keyword present wins.
type Rule struct {
	Name     string
	Keywords []string
	Answer   string
}

// HandoffMessage is sent when no rule matches; the conversation moves to a
// human over text.
const HandoffMessage = "Thanks for reaching out! A team member will text you shortly to help with that."

// DefaultRules answers the questions customers ask most while booking.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "pricing",
			Keywords: []string{"price", "cost", "how much", "pricing", "quote"},
			Answer:   "Pricing depends on the service and your vehicle's condition. Pick a service in the booking flow and you'll see a live total before you confirm, with nothing charged until the job is done.",
		},
		{
			Name:     "service-area",
			Keywords: []string{"service area", "travel", "come to", "where do you", "radius", "far"},
			Answer:   "We serve the greater Chattanooga area, about 20 miles from downtown, with an extended zone out to 35 miles. Enter your address in the booking flow and we'll confirm instantly.",
		},
		{
			Name:     "duration",
			Keywords: []string{"how long", "duration", "take", "hours"},
			Answer:   "Most details run 2 to 4 hours depending on the package and vehicle condition. Each service in the booking flow lists its typical duration.",
		},
		{
			Name:     "hookups",
			Keywords: []string{"water", "power", "electric", "outlet", "hose", "hookup"},
			Answer:   "We bring our own water and power, so no hookups are required. If you do have an outlet or spigot available it can speed things up, and the booking flow asks about it.",
		},
		{
			Name:     "weather",
			Keywords: []string{"rain", "weather", "storm", "forecast"},
			Answer:   "If rain threatens your appointment we'll reach out to reschedule at no charge. The booking flow also warns you when the forecast looks wet for your chosen day.",
		},
		{
			Name:     "loyalty",
			Keywords: []string{"points", "loyalty", "reward", "referral"},
			Answer:   "You earn a point for every dollar spent, and rewards unlock as you climb from Bronze to Platinum. Referral codes can be applied on the final booking step.",
		},
		{
			Name:     "cancellation",
			Keywords: []string{"cancel", "reschedule", "change my"},
			Answer:   "No problem, just text us at least 24 hours ahead and we'll move or cancel your appointment free of charge.",
		},
	}
}

// Responder matches inbound chat text against the rules table.
type Responder struct {
	rules []Rule
}

// NewResponder creates a responder; nil rules gets the defaults.
func NewResponder(rules []Rule) *Responder {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Responder{rules: rules}
}

// Answer returns the reply for a message and whether a rule matched. An
// unmatched message gets the handoff reply.
func (r *Responder) Answer(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Answer, true
			}
		}
	}
	return HandoffMessage, false
}
