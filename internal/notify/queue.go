package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobType string

const (
	jobTypeConfirmation jobType = "booking_confirmation"
	jobTypeOwnerAlert   jobType = "owner_alert"
)

// Confirmation is everything a booking-confirmation message needs.
type Confirmation struct {
	AppointmentID         string   `json:"appointmentId"`
	CustomerName          string   `json:"customerName"`
	CustomerEmail         string   `json:"customerEmail,omitempty"`
	CustomerPhone         string   `json:"customerPhone"`
	SMSConsent            bool     `json:"smsConsent"`
	ServiceName           string   `json:"serviceName"`
	AddOns                []string `json:"addOns,omitempty"`
	Vehicles              []string `json:"vehicles"`
	Address               string   `json:"address"`
	ScheduledAt           string   `json:"scheduledAt,omitempty"` // RFC3339 when a slot was picked
	Date                  string   `json:"date,omitempty"`        // yyyy-MM-dd in fallback mode
	PreferredWindow       string   `json:"preferredWindow,omitempty"`
	NeedsTimeConfirmation bool     `json:"needsTimeConfirmation"`
	TotalCents            int      `json:"totalCents"`
	PointsEarned          int      `json:"pointsEarned"`
	EventLink             string   `json:"eventLink,omitempty"`
}

type queuePayload struct {
	ID           string       `json:"id"`
	Kind         jobType      `json:"kind"`
	Confirmation Confirmation `json:"confirmation"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("notify: failed to encode payload: %w", err)
	}

	return payload, string(body), nil
}
