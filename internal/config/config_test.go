package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		OrganisationName: "Harrow Tamil School",
		Database:         DatabaseConfig{Driver: DriverSQLite, Path: "volunteers.db"},
		Notifier:         NotifierConfig{Backend: BackendNone},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
	}{
		{"minimal sqlite", func(cfg *Config) {}, false},
		{"missing organisation", func(cfg *Config) { cfg.OrganisationName = "" }, true},
		{"unknown driver", func(cfg *Config) { cfg.Database.Driver = "mysql" }, true},
		{"sqlite without path", func(cfg *Config) { cfg.Database.Path = "" }, true},
		{"postgres without url", func(cfg *Config) {
			cfg.Database = DatabaseConfig{Driver: DriverPostgres}
		}, true},
		{"postgres with url", func(cfg *Config) {
			cfg.Database = DatabaseConfig{Driver: DriverPostgres, URL: "postgres://localhost/volunteers"}
		}, false},
		{"unknown backend", func(cfg *Config) { cfg.Notifier.Backend = "pigeon" }, true},
		{"smtp without host", func(cfg *Config) { cfg.Notifier.Backend = BackendSMTP }, false},
		{"smtp with host", func(cfg *Config) {
			cfg.Notifier.Backend = BackendSMTP
			cfg.Notifier.SMTP = SMTPConfig{Host: "smtp.example.com", Port: 587, From: "school@example.com"}
		}, false},
		{"invalid sender", func(cfg *Config) { cfg.Notifier.GmailSender = "not-an-email" }, true},
		{"admin password without key", func(cfg *Config) { cfg.Admin.Password = "secret" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "validation failed")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SMTP_HOST":         "smtp.example.com",
		"SMTP_PORT":         "2525",
		"SMTP_USER":         "school@example.com",
		"SMTP_PASS":         "app-password",
		"ADMIN_PASSWORD":    "admin",
		"ADMIN_SESSION_KEY": "key",
		"DATABASE_URL":      "postgres://db/volunteers",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := &Config{}
	require.NoError(t, applyEnv(cfg, lookup))

	assert.Equal(t, "smtp.example.com", cfg.Notifier.SMTP.Host)
	assert.Equal(t, 2525, cfg.Notifier.SMTP.Port)
	assert.Equal(t, "app-password", cfg.Notifier.SMTP.Password)
	assert.Equal(t, "school@example.com", cfg.Notifier.SMTP.From, "sender defaults to the smtp user")
	assert.Equal(t, "admin", cfg.Admin.Password)
	assert.Equal(t, "key", cfg.Admin.SessionKey)
	assert.Equal(t, "postgres://db/volunteers", cfg.Database.URL)
	assert.Equal(t, BackendSMTP, cfg.Notifier.Backend, "smtp host selects the smtp backend")
}

func TestApplyEnv_ExplicitBackendWins(t *testing.T) {
	cfg := &Config{Notifier: NotifierConfig{Backend: BackendGmail}}
	err := applyEnv(cfg, func(key string) (string, bool) {
		if key == "SMTP_HOST" {
			return "smtp.example.com", true
		}
		return "", false
	})
	require.NoError(t, err)
	assert.Equal(t, BackendGmail, cfg.Notifier.Backend)
}

func TestApplyEnv_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, applyEnv(cfg, func(string) (string, bool) { return "", false }))
	assert.Equal(t, 587, cfg.Notifier.SMTP.Port)
	assert.Equal(t, BackendNone, cfg.Notifier.Backend)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	cfg := &Config{}
	err := applyEnv(cfg, func(key string) (string, bool) {
		if key == "SMTP_PORT" {
			return "abc", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestLoadFromPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "volunteer_config.test.yaml")
	content := `
organisationName: "Harrow Tamil School"
database:
  driver: sqlite
  path: volunteers.db
admin:
  sessionKey: "signing-key"
  sessionTTL: 2h
notifier:
  backend: smtp
  smtp:
    host: smtp.example.com
    user: school@example.com
reportSheetID: "sheet123"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("ADMIN_PASSWORD", "from-env")

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "Harrow Tamil School", cfg.OrganisationName)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "volunteers.db", cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, 2*time.Hour, cfg.Admin.SessionTTL)
	assert.Equal(t, BackendSMTP, cfg.Notifier.Backend)
	assert.Equal(t, 587, cfg.Notifier.SMTP.Port)
	assert.Equal(t, "school@example.com", cfg.Notifier.SMTP.From)
	assert.Equal(t, "sheet123", cfg.ReportSheetID)
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromPath(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("database: [unclosed"), 0644))
	_, err = LoadFromPath(badYAML)
	assert.ErrorContains(t, err, "failed to parse config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("organisationName: X\ndatabase:\n  driver: sqlite\n"), 0644))
	_, err = LoadFromPath(invalid)
	assert.ErrorContains(t, err, "validation failed")
}

func TestConfigFileName(t *testing.T) {
	assert.Equal(t, "volunteer_config.yaml", configFileName(""))
	assert.Equal(t, "volunteer_config.prod.yaml", configFileName("prod"))
}
