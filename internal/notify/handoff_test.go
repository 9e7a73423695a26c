package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHandoffEmailsOwner(t *testing.T) {
	email := &recordingEmail{}
	h := NewChatHandoff(email, "owner@cleanmachine.example", nil)

	err := h.NotifyHandoff(context.Background(), "sess-9", "do you detail RVs?")
	require.NoError(t, err)

	sent := email.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "owner@cleanmachine.example", sent[0].To)
	assert.Contains(t, sent[0].Body, "do you detail RVs?")
	assert.Contains(t, sent[0].Body, "sess-9")
}

func TestChatHandoffNoOwnerConfigured(t *testing.T) {
	email := &recordingEmail{}
	h := NewChatHandoff(email, "", nil)

	err := h.NotifyHandoff(context.Background(), "sess-9", "hello?")
	require.NoError(t, err)
	assert.Empty(t, email.messages())
}
