package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/cmd/cli/commands"
	"github.com/jakechorley/tamilschool-volunteers/internal/config"
	"github.com/jakechorley/tamilschool-volunteers/pkg/clients/gmailclient"
	"github.com/jakechorley/tamilschool-volunteers/pkg/clients/sheetsclient"
	"github.com/jakechorley/tamilschool-volunteers/pkg/clients/smtpclient"
	"github.com/jakechorley/tamilschool-volunteers/pkg/core/admingate"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
	"github.com/jakechorley/tamilschool-volunteers/pkg/notify"
	"github.com/jakechorley/tamilschool-volunteers/pkg/postgres"
	"github.com/jakechorley/tamilschool-volunteers/pkg/sqlite"
	"github.com/jakechorley/tamilschool-volunteers/pkg/utils"
	"github.com/jakechorley/tamilschool-volunteers/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{Ctx: context.Background()}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "volunteers",
		Short: "Tamil school volunteer signup, assignment and eligibility",
		Long: `Volunteers sign up for services and Saturday dates. Admins manage services and
sub-services, assign volunteers, and report rosters and fee-return eligibility.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.PersistentFlags().StringVar(&app.AdminToken, "admin-token", "", "Admin session token (defaults to $ADMIN_TOKEN)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(
		commands.SignupCmd(app),
		commands.DatesCmd(app),
		commands.AdminCmd(app),
		commands.VolunteerCmd(app),
		commands.ServiceCmd(app),
		commands.SubserviceCmd(app),
		commands.AssignmentCmd(app),
		commands.ReportCmd(app),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, notifier and admin gate
func initApp() error {
	logger, logPath, err := logging.InitLogger(env, logging.DefaultLogsDir, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	utils.Logger = logger
	logger.Debug("Starting application", zap.String("log_file", logPath))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("Configuration loaded",
		zap.String("driver", app.Cfg.Database.Driver),
		zap.String("notifier", app.Cfg.Notifier.Backend))

	app.Database, err = openStore(app.Ctx, app.Cfg.Database, logger)
	if err != nil {
		return err
	}

	report := app.Database.MigrationReport()
	for _, id := range report.Corrupt {
		logger.Warn("Volunteer had an unreadable legacy date mapping, treated as empty", zap.Int64("volunteer_id", id))
	}

	mailer, err := newMailer(app.Cfg, logger)
	if err != nil {
		return err
	}
	app.Notifier = notify.New(mailer, app.Cfg.OrganisationName, logger)

	if app.Cfg.Admin.Password != "" {
		app.Gate, err = admingate.New(app.Cfg.Admin.Password, app.Cfg.Admin.SessionKey, app.Cfg.Admin.SessionTTL, logger)
		if err != nil {
			return fmt.Errorf("failed to set up admin gate: %w", err)
		}
	}

	app.NewPublisher = func() (commands.TablePublisher, error) {
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}
		return sheetsclient.NewClient(app.Ctx, oauthCfg, env)
	}

	return nil
}

// openStore connects to the configured database and brings its schema up to date
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewDB(ctx, cfg.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.RunMigrations(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.NewDB(ctx, cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := store.RunMigrations(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
		return store, nil
	}
}

// newMailer returns the configured delivery backend, or nil when email is disabled
func newMailer(cfg *config.Config, logger *zap.Logger) (notify.Mailer, error) {
	switch cfg.Notifier.Backend {
	case config.BackendSMTP:
		if cfg.Notifier.SMTP.Host == "" {
			logger.Warn("SMTP backend selected without a host, confirmation emails are disabled")
			return nil, nil
		}
		client, err := smtpclient.NewClient(smtpclient.Config{
			Host:     cfg.Notifier.SMTP.Host,
			Port:     cfg.Notifier.SMTP.Port,
			User:     cfg.Notifier.SMTP.User,
			Password: cfg.Notifier.SMTP.Password,
			From:     cfg.Notifier.SMTP.From,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp client: %w", err)
		}
		return client, nil
	case config.BackendGmail:
		return &gmailMailer{sender: cfg.Notifier.GmailSender}, nil
	default:
		return nil, nil
	}
}

// gmailMailer connects to Gmail on the first send so the OAuth flow only runs for signups
type gmailMailer struct {
	sender string
	once   sync.Once
	client *gmailclient.Client
	err    error
}

func (m *gmailMailer) SendEmail(to, subject, body string) error {
	m.once.Do(func() {
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			m.err = fmt.Errorf("failed to load OAuth client config: %w", err)
			return
		}
		m.client, m.err = gmailclient.NewClient(app.Ctx, oauthCfg, env, m.sender)
	})
	if m.err != nil {
		return m.err
	}
	return m.client.SendEmail(to, subject, body)
}
