package smtpclient

import (
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const sendTimeout = 10 * time.Second

// Config holds the SMTP relay settings
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Client sends mail through an SMTP relay, requiring STARTTLS
type Client struct {
	cfg    Config
	client *mail.Client
}

// NewClient creates a new SMTP client. From defaults to User.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(sendTimeout),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Client{cfg: cfg, client: client}, nil
}

// SendEmail sends a plain-text email with the specified subject and body
func (c *Client) SendEmail(to, subject, body string) error {
	msg, err := buildMessage(c.cfg.From, to, subject, body)
	if err != nil {
		return err
	}

	if err := c.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// buildMessage creates a UTF-8 message. Headers are Q-encoded and the body is
// sent quoted-printable, so non-ASCII names survive 7-bit relays.
func buildMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithCharset(mail.CharsetUTF8), mail.WithEncoding(mail.EncodingQP))
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
