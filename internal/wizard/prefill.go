package wizard

import (
	"github.com/cleanmachine/detailing-platform/internal/customers"
)

// ApplyPrefill merges a returning-customer match into the draft without
// overwriting anything the customer already typed. The customer ID is always
// taken so loyalty checks run against the right account.
func (s *Session) ApplyPrefill(match *customers.Match) {
	d := &s.Draft
	d.CustomerID = match.Customer.ID
	if d.Name == "" {
		d.Name = match.Customer.Name
	}
	if d.Email == "" {
		d.Email = match.Customer.Email
	}
	if d.Address == "" {
		d.Address = match.Customer.Address
	}

	recent := match.RecentAppointment
	if recent == nil {
		s.touch()
		return
	}
	cur := &d.Vehicles[d.CurrentVehicle]
	if cur.Make == "" && cur.Model == "" && cur.Year == "" {
		cur.Make = recent.VehicleMake
		cur.Model = recent.VehicleModel
		cur.Year = recent.VehicleYear
		cur.Color = recent.VehicleColor
	}
	s.touch()
}

// BookAgain seeds the draft from a past appointment and jumps the flow to
// add-ons, skipping the steps the history already answers. Anything the
// customer filled in by hand is kept.
func (s *Session) BookAgain(match *customers.Match, appointmentID string) bool {
	var past *customers.PastAppointment
	for i := range match.PastAppointments {
		if match.PastAppointments[i].ID == appointmentID {
			past = &match.PastAppointments[i]
			break
		}
	}
	if past == nil {
		return false
	}
	s.ApplyPrefill(match)
	d := &s.Draft
	if d.Address == "" {
		d.Address = past.Address
	}
	d.ServiceName = past.ServiceName
	cur := &d.Vehicles[d.CurrentVehicle]
	if cur.Make == "" && cur.Model == "" && cur.Year == "" {
		cur.Make = past.VehicleMake
		cur.Model = past.VehicleModel
		cur.Year = past.VehicleYear
		cur.Color = past.VehicleColor
	}
	s.Step = StepAddons
	s.touch()
	return true
}
