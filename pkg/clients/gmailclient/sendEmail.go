package gmailclient

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// sendInterval is the minimum gap between two sends to stay under Gmail rate limits
const sendInterval = 3 * time.Second

// SendEmail sends a plain-text confirmation email
func (c *Client) SendEmail(to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		if elapsed := time.Since(c.lastSendTime); elapsed < sendInterval {
			time.Sleep(sendInterval - elapsed)
		}
	}

	raw := base64.URLEncoding.EncodeToString(rawMessage(c.sender, to, subject, body))

	if _, err := c.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Do(); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	c.lastSendTime = time.Now()
	return nil
}

// rawMessage builds an RFC 2822 message. The subject is Q-encoded since the
// organisation name may contain non-ASCII characters.
func rawMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
