package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Notifier backends
const (
	BackendNone  = "none"
	BackendSMTP  = "smtp"
	BackendGmail = "gmail"
)

// DatabaseConfig selects and locates the store
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite postgres"`
	Path   string `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
	URL    string `yaml:"url,omitempty" validate:"required_if=Driver postgres"`
}

// AdminConfig holds the shared admin secret and session settings
type AdminConfig struct {
	Password   string        `yaml:"password,omitempty"`
	SessionKey string        `yaml:"sessionKey,omitempty" validate:"required_with=Password"`
	SessionTTL time.Duration `yaml:"sessionTTL,omitempty"`
}

// SMTPConfig holds the SMTP relay settings
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from,omitempty" validate:"omitempty,email"`
}

// NotifierConfig selects how signup confirmations are delivered
type NotifierConfig struct {
	Backend     string     `yaml:"backend" validate:"required,oneof=none smtp gmail"`
	SMTP        SMTPConfig `yaml:"smtp,omitempty"`
	GmailSender string     `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

// Config represents the application configuration
type Config struct {
	OrganisationName string         `yaml:"organisationName" validate:"required"`
	Database         DatabaseConfig `yaml:"database"`
	Admin            AdminConfig    `yaml:"admin"`
	Notifier         NotifierConfig `yaml:"notifier"`
	ReportSheetID    string         `yaml:"reportSheetID,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads volunteer_config.<env>.yaml, applies environment overrides and validates it.
// It looks for the config file in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, then applies environment overrides
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// applyEnv overrides file values with the environment. Secrets are normally supplied this way.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	overrides := map[string]*string{
		"SMTP_HOST":         &cfg.Notifier.SMTP.Host,
		"SMTP_USER":         &cfg.Notifier.SMTP.User,
		"SMTP_PASS":         &cfg.Notifier.SMTP.Password,
		"FROM_EMAIL":        &cfg.Notifier.SMTP.From,
		"ADMIN_PASSWORD":    &cfg.Admin.Password,
		"ADMIN_SESSION_KEY": &cfg.Admin.SessionKey,
		"DATABASE_URL":      &cfg.Database.URL,
	}
	for key, target := range overrides {
		if value, ok := lookup(key); ok && value != "" {
			*target = value
		}
	}

	if value, ok := lookup("SMTP_PORT"); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", value, err)
		}
		cfg.Notifier.SMTP.Port = port
	}

	if cfg.Notifier.SMTP.Port == 0 {
		cfg.Notifier.SMTP.Port = 587
	}
	if cfg.Notifier.SMTP.From == "" {
		cfg.Notifier.SMTP.From = cfg.Notifier.SMTP.User
	}
	// SMTP_HOST alone turns on smtp delivery unless a backend is chosen explicitly
	if cfg.Notifier.Backend == "" {
		cfg.Notifier.Backend = BackendNone
		if cfg.Notifier.SMTP.Host != "" {
			cfg.Notifier.Backend = BackendSMTP
		}
	}

	return nil
}

func configFileName(env string) string {
	if env == "" {
		return "volunteer_config.yaml"
	}
	return "volunteer_config." + env + ".yaml"
}

// findFile searches for name in the current directory, then the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
