package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockMailer implements Mailer
type mockMailer struct {
	err  error
	sent []sentEmail
}

type sentEmail struct {
	to, subject, body string
}

func (m *mockMailer) SendEmail(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to, subject, body})
	return nil
}

func TestNotify_Sends(t *testing.T) {
	mailer := &mockMailer{}
	n := New(mailer, "Harrow Tamil School", zap.NewNop())

	ok := n.Notify("arun@example.com", "Arun", "Cleaning, Kitchen", "Cleaning: 2024-06-01; Kitchen: No dates selected")
	require.True(t, ok)
	require.Len(t, mailer.sent, 1)

	email := mailer.sent[0]
	assert.Equal(t, "arun@example.com", email.to)
	assert.Equal(t, "Harrow Tamil School Volunteer Signup Confirmation", email.subject)
	assert.Equal(t,
		"Hi Arun,\n\nThank you for signing up for Cleaning, Kitchen. Your assigned date: Cleaning: 2024-06-01; Kitchen: No dates selected."+
			"\n\nWe will contact you with further details.\n\n— Harrow Tamil School",
		email.body)
}

func TestNotify_Unconfigured(t *testing.T) {
	n := New(nil, "Harrow Tamil School", zap.NewNop())
	assert.False(t, n.Notify("arun@example.com", "Arun", "Volunteer", ""))
}

func TestNotify_DeliveryFailure(t *testing.T) {
	mailer := &mockMailer{err: errors.New("connection refused")}
	n := New(mailer, "Harrow Tamil School", zap.NewNop())

	assert.False(t, n.Notify("arun@example.com", "Arun", "Volunteer", ""))
	assert.Empty(t, mailer.sent)
}

func TestBody(t *testing.T) {
	tests := []struct {
		name     string
		dates    string
		expected string
	}{
		{
			name:     "without dates",
			expected: "Hi Meena,\n\nThank you for signing up for Volunteer.\n\nWe will contact you with further details.\n\n— Org",
		},
		{
			name:     "with dates",
			dates:    "Library: 2024-06-08",
			expected: "Hi Meena,\n\nThank you for signing up for Volunteer. Your assigned date: Library: 2024-06-08.\n\nWe will contact you with further details.\n\n— Org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Body("Org", "Meena", "Volunteer", tt.dates))
		})
	}
}
