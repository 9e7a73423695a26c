package notify

import (
	"context"
	"fmt"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Publisher enqueues notification jobs for asynchronous processing, keeping
// email and SMS delivery off the booking request path.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// EnqueueConfirmation publishes the customer confirmation and the owner
// alert for a new booking.
func (p *Publisher) EnqueueConfirmation(ctx context.Context, c Confirmation) error {
	if err := p.enqueue(ctx, jobTypeConfirmation, c); err != nil {
		return err
	}
	return p.enqueue(ctx, jobTypeOwnerAlert, c)
}

func (p *Publisher) enqueue(ctx context.Context, kind jobType, c Confirmation) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(queuePayload{Kind: kind, Confirmation: c})
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("notify: failed to enqueue job: %w", err)
	}

	p.logger.Debug("notification job enqueued", "job_id", payload.ID, "kind", kind, "appointment_id", c.AppointmentID)
	return nil
}
