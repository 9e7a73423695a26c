// Package pricing computes booking quotes. It is pure: no I/O, no clocks,
// deterministic for a given catalog snapshot and vehicle list.
package pricing

import (
	"math"

	"github.com/cleanmachine/detailing-platform/internal/catalog"
)

// ConditionNone is the mutually-exclusive "no special conditions" label.
const ConditionNone = "None of the above"

// additionalVehicleFactor discounts each vehicle after the first to 75% of
// the base service price, rounded to the nearest cent-free dollar amount the
// catalog works in.
const additionalVehicleFactor = 0.75

// conditionSurchargeCents prices per-vehicle condition labels.
var conditionSurchargeCents = map[string]int{
	"Excessive Pet Hair":     4000,
	"Major Stains or Spills": 7500,
	"Heavy Dirt or Mud":      5000,
	"Smoke Odor":             6000,
	ConditionNone:            0,
}

// ConditionSurcharge returns the surcharge in cents for a condition label.
// Unknown labels cost nothing rather than failing the quote.
func ConditionSurcharge(label string) int {
	return conditionSurchargeCents[label]
}

// ConditionLabels lists the selectable vehicle condition labels in display order.
func ConditionLabels() []string {
	return []string{
		"Excessive Pet Hair",
		"Major Stains or Spills",
		"Heavy Dirt or Mud",
		"Smoke Odor",
		ConditionNone,
	}
}

// LineItem is one priced component of a quote.
type LineItem struct {
	Name        string `json:"name"`
	AmountCents int    `json:"amountCents"`
	IsAddOn     bool   `json:"isAddOn"`
}

// Quote is a fully computed booking price.
type Quote struct {
	Items        []LineItem `json:"items"`
	TotalCents   int        `json:"totalCents"`
	PointsEarned int        `json:"pointsEarned"`
}

// Calculator prices bookings. PointsEarningRate is points per dollar spent;
// zero means the default of 1.
type Calculator struct {
	PointsEarningRate float64
}

// Compute prices a booking: base service + add-ons + per-vehicle condition
// surcharges + a 75%-of-base surcharge for every vehicle beyond the first.
// vehicleConditions holds one condition list per vehicle in booking order.
func (c Calculator) Compute(service catalog.Service, addOns []catalog.AddOnService, vehicleConditions [][]string) Quote {
	base := service.BasePrice()

	q := Quote{}
	q.Items = append(q.Items, LineItem{Name: service.Name, AmountCents: base})
	q.TotalCents = base

	for _, a := range addOns {
		price := a.Price()
		q.Items = append(q.Items, LineItem{Name: a.Name, AmountCents: price, IsAddOn: true})
		q.TotalCents += price
	}

	for i, conditions := range vehicleConditions {
		if i > 0 {
			extra := roundCents(float64(base) * additionalVehicleFactor)
			q.Items = append(q.Items, LineItem{Name: "Additional vehicle", AmountCents: extra})
			q.TotalCents += extra
		}
		for _, label := range conditions {
			if surcharge := ConditionSurcharge(label); surcharge > 0 {
				q.Items = append(q.Items, LineItem{Name: label, AmountCents: surcharge})
				q.TotalCents += surcharge
			}
		}
	}

	q.PointsEarned = c.points(q.TotalCents)
	return q
}

// points converts a cart total to loyalty points: one point per whole dollar,
// scaled by the earning rate.
func (c Calculator) points(totalCents int) int {
	rate := c.PointsEarningRate
	if rate <= 0 {
		rate = 1
	}
	return int(math.Floor(float64(totalCents) / 100.0 * rate))
}

func roundCents(v float64) int {
	return int(math.Round(v))
}
