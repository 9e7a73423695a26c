package appointments

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLink(t *testing.T) {
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	link := EventLink("Full Detail", &start, 3, "123 Main St, Chattanooga, TN", []string{"Engine Bay Cleaning"})

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Clean Machine: Full Detail", q.Get("text"))
	assert.Equal(t, "20260907T140000Z/20260907T170000Z", q.Get("dates"))
	assert.Equal(t, "123 Main St, Chattanooga, TN", q.Get("location"))
	assert.Contains(t, q.Get("details"), "Engine Bay Cleaning")
}

func TestEventLinkNoSlot(t *testing.T) {
	assert.Empty(t, EventLink("Full Detail", nil, 3, "123 Main St", nil))
}

func TestEventLinkDefaultDuration(t *testing.T) {
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	link := EventLink("Express Wash", &start, 0, "123 Main St", nil)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "20260907T140000Z/20260907T160000Z", parsed.Query().Get("dates"))
}
