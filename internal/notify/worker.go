package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

// Worker consumes notification jobs from the queue and delivers them.
type Worker struct {
	queue      queueClient
	email      EmailSender
	sms        SMSSender
	ownerEmail string
	logger     *logging.Logger

	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	wg               sync.WaitGroup
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*Worker)

// WithWorkerCount sets how many receive loops run concurrently.
func WithWorkerCount(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithReceiveWait sets the long-poll wait in seconds.
func WithReceiveWait(secs int) WorkerOption {
	return func(w *Worker) {
		if secs > 0 && secs <= maxWaitSeconds {
			w.receiveWaitSecs = secs
		}
	}
}

// NewWorker creates a notification worker.
func NewWorker(queue queueClient, email EmailSender, sms SMSSender, ownerEmail string, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if sms == nil {
		sms = NewStubSMSSender(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:            queue,
		email:            email,
		sms:              sms,
		ownerEmail:       ownerEmail,
		logger:           logger,
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.receiveBatchSize > maxReceiveBatchSize {
		w.receiveBatchSize = maxReceiveBatchSize
	}
	return w
}

// Start launches the receive loops. They stop when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(ctx)
		}()
	}
}

// Wait blocks until all receive loops have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.receiveBatchSize, w.receiveWaitSecs)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue receive failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("dropping malformed notification job", "message_id", msg.ID, "error", err)
		w.delete(msg)
		return
	}

	var err error
	switch payload.Kind {
	case jobTypeConfirmation:
		err = w.deliverConfirmation(ctx, payload.Confirmation)
	case jobTypeOwnerAlert:
		err = w.deliverOwnerAlert(ctx, payload.Confirmation)
	default:
		w.logger.Warn("dropping unknown notification job", "kind", payload.Kind, "message_id", msg.ID)
	}

	if err != nil {
		// Leave the message for redelivery.
		w.logger.Error("notification delivery failed", "job_id", payload.ID, "kind", payload.Kind, "error", err)
		return
	}
	w.delete(msg)
}

// deliverConfirmation sends the customer email and, with consent, the text.
func (w *Worker) deliverConfirmation(ctx context.Context, c Confirmation) error {
	if c.CustomerEmail != "" {
		if err := w.email.Send(ctx, ConfirmationEmail(c)); err != nil {
			return err
		}
	}
	if c.SMSConsent && c.CustomerPhone != "" {
		if err := w.sms.SendSMS(ctx, c.CustomerPhone, ConfirmationSMS(c)); err != nil {
			// Email already went out; a failed text is logged, not retried.
			w.logger.Warn("confirmation SMS failed", "appointment_id", c.AppointmentID, "error", err)
		}
	}
	return nil
}

func (w *Worker) deliverOwnerAlert(ctx context.Context, c Confirmation) error {
	if w.ownerEmail == "" {
		return nil
	}
	return w.email.Send(ctx, OwnerAlertEmail(c, w.ownerEmail))
}

func (w *Worker) delete(msg queueMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("failed to delete queue message", "message_id", msg.ID, "error", err)
	}
}
