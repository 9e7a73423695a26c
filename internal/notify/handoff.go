package notify

import (
	"context"
	"fmt"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// ChatHandoff alerts the owner when the chat widget can't answer a question
// and a human needs to take over by text.
type ChatHandoff struct {
	email      EmailSender
	ownerEmail string
	logger     *logging.Logger
}

// NewChatHandoff creates a handoff notifier. email may be nil for a stub.
func NewChatHandoff(email EmailSender, ownerEmail string, logger *logging.Logger) *ChatHandoff {
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandoff{email: email, ownerEmail: ownerEmail, logger: logger}
}

// NotifyHandoff emails the owner with the unanswered question.
func (h *ChatHandoff) NotifyHandoff(ctx context.Context, sessionID, text string) error {
	if h.ownerEmail == "" {
		h.logger.Warn("chat handoff with no owner email configured", "session_id", sessionID)
		return nil
	}
	msg := EmailMessage{
		To:      h.ownerEmail,
		Subject: "Chat needs a reply",
		Body: fmt.Sprintf("A website visitor asked something the chat widget couldn't answer.\n\n"+
			"Session: %s\nQuestion: %s\n", sessionID, text),
	}
	if err := h.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: chat handoff alert: %w", err)
	}
	return nil
}
