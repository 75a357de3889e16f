package notify

import (
	"fmt"

	"go.uber.org/zap"
)

// Mailer delivers a plain-text email
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Notifier sends signup confirmations through a Mailer
type Notifier struct {
	mailer           Mailer
	organisationName string
	logger           *zap.Logger
}

// New creates a Notifier. A nil mailer yields a notifier that never sends.
func New(mailer Mailer, organisationName string, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer:           mailer,
		organisationName: organisationName,
		logger:           logger,
	}
}

// Notify emails the signup confirmation and reports whether it was delivered.
// It never fails the caller: a missing backend or a delivery error returns false.
func (n *Notifier) Notify(to, volunteerName, serviceSummary, assignedDatesSummary string) bool {
	if n.mailer == nil {
		n.logger.Warn("Email delivery not configured, skipping confirmation", zap.String("to", to))
		return false
	}

	subject := Subject(n.organisationName)
	body := Body(n.organisationName, volunteerName, serviceSummary, assignedDatesSummary)

	if err := n.mailer.SendEmail(to, subject, body); err != nil {
		n.logger.Error("Failed to send confirmation email",
			zap.String("to", to),
			zap.Error(err))
		return false
	}

	n.logger.Info("Confirmation email sent", zap.String("to", to))
	return true
}

// Subject returns the confirmation email subject line
func Subject(organisationName string) string {
	return fmt.Sprintf("%s Volunteer Signup Confirmation", organisationName)
}

// Body returns the confirmation email body. The assigned date sentence is omitted
// when there is no date summary.
func Body(organisationName, volunteerName, serviceSummary, assignedDatesSummary string) string {
	body := fmt.Sprintf("Hi %s,\n\nThank you for signing up for %s.", volunteerName, serviceSummary)
	if assignedDatesSummary != "" {
		body += fmt.Sprintf(" Your assigned date: %s.", assignedDatesSummary)
	}
	body += fmt.Sprintf("\n\nWe will contact you with further details.\n\n— %s", organisationName)
	return body
}
