package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jakechorley/tamilschool-volunteers/internal/config"
	"github.com/jakechorley/tamilschool-volunteers/pkg/clients/smtpclient"
)

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name     string
		notifier config.NotifierConfig
		wantNil  bool
		wantWarn bool
		check    func(t *testing.T, mailer any)
	}{
		{
			name:     "none disables email",
			notifier: config.NotifierConfig{Backend: config.BackendNone},
			wantNil:  true,
		},
		{
			name:     "smtp without host disables email with a warning",
			notifier: config.NotifierConfig{Backend: config.BackendSMTP},
			wantNil:  true,
			wantWarn: true,
		},
		{
			name: "smtp with host",
			notifier: config.NotifierConfig{
				Backend: config.BackendSMTP,
				SMTP:    config.SMTPConfig{Host: "smtp.example.com", User: "school@example.com"},
			},
			check: func(t *testing.T, mailer any) {
				assert.IsType(t, &smtpclient.Client{}, mailer)
			},
		},
		{
			name:     "gmail connects lazily",
			notifier: config.NotifierConfig{Backend: config.BackendGmail, GmailSender: "school@example.com"},
			check: func(t *testing.T, mailer any) {
				require.IsType(t, &gmailMailer{}, mailer)
				assert.Equal(t, "school@example.com", mailer.(*gmailMailer).sender)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			cfg := &config.Config{OrganisationName: "Tamil School", Notifier: tt.notifier}

			mailer, err := newMailer(cfg, zap.New(core))
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, mailer)
			} else {
				require.NotNil(t, mailer)
				tt.check(t, mailer)
			}
			assert.Equal(t, tt.wantWarn, logs.Len() == 1)
		})
	}
}
