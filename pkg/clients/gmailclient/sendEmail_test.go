package gmailclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawMessage(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		subject  string
		contains []string
		absent   []string
	}{
		{
			name:     "with sender",
			from:     "school@example.com",
			subject:  "Confirmation",
			contains: []string{"From: school@example.com\r\n", "To: arun@example.com\r\n", "Subject: Confirmation\r\n"},
		},
		{
			name:     "without sender",
			subject:  "Confirmation",
			contains: []string{"To: arun@example.com\r\n"},
			absent:   []string{"From:"},
		},
		{
			name:     "non-ascii subject is encoded",
			subject:  "தமிழ் Confirmation",
			contains: []string{"Subject: =?utf-8?q?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := string(rawMessage(tt.from, "arun@example.com", tt.subject, "Hello"))
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, msg, s)
			}
			assert.Contains(t, msg, "\r\n\r\nHello")
		})
	}
}
