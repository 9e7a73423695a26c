package customers

import "time"

// Customer is an identified repeat customer.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// PastAppointment is a historical booking used for "book again" shortcuts.
type PastAppointment struct {
	ID           string    `json:"id"`
	ServiceName  string    `json:"serviceName"`
	VehicleMake  string    `json:"vehicleMake,omitempty"`
	VehicleModel string    `json:"vehicleModel,omitempty"`
	VehicleYear  string    `json:"vehicleYear,omitempty"`
	VehicleColor string    `json:"vehicleColor,omitempty"`
	Address      string    `json:"address,omitempty"`
	ScheduledAt  time.Time `json:"scheduledAt"`
}

// Match is a successful returning-customer lookup.
type Match struct {
	Customer          Customer          `json:"customer"`
	RecentAppointment *PastAppointment  `json:"recentAppointment,omitempty"`
	PastAppointments  []PastAppointment `json:"pastAppointments"`
}
