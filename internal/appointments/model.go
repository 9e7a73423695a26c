package appointments

import "time"

// Record is one appointment row as persisted.
type Record struct {
	ID                    string     `json:"id"`
	CustomerID            string     `json:"customerId"`
	ServiceName           string     `json:"serviceName"`
	AddOns                []string   `json:"addOns,omitempty"`
	Vehicles              []Vehicle  `json:"vehicles"`
	Address               string     `json:"address"`
	Latitude              *float64   `json:"latitude,omitempty"`
	Longitude             *float64   `json:"longitude,omitempty"`
	AddressNeedsReview    bool       `json:"addressNeedsReview"`
	ScheduledAt           *time.Time `json:"scheduledAt,omitempty"`
	Date                  string     `json:"date,omitempty"`
	PreferredWindow       string     `json:"preferredWindow,omitempty"`
	NeedsTimeConfirmation bool       `json:"needsTimeConfirmation"`
	Notes                 string     `json:"notes,omitempty"`
	SMSConsent            bool       `json:"smsConsent"`
	TotalCents            int        `json:"totalCents"`
	ReferralCode          string     `json:"referralCode,omitempty"`
	RewardID              string     `json:"rewardId,omitempty"`
	Status                string     `json:"status"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// Vehicle is the persisted shape of one vehicle on an appointment.
type Vehicle struct {
	Make       string   `json:"make"`
	Model      string   `json:"model"`
	Year       string   `json:"year"`
	Color      string   `json:"color,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// CustomerUpsert identifies or creates the booking customer.
type CustomerUpsert struct {
	Name    string
	Phone   string // normalized, digits only
	Email   string
	Address string
}
