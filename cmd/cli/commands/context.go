package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/internal/config"
	"github.com/jakechorley/tamilschool-volunteers/pkg/core/admingate"
	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// TablePublisher writes a table to a new tab of a spreadsheet
type TablePublisher interface {
	PublishTable(spreadsheetID, title string, rows [][]string) (int64, error)
}

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Notifier services.Notifier
	Gate     *admingate.Gate // nil when no admin password is configured
	Logger   *zap.Logger
	Ctx      context.Context

	// AdminToken is the session presented to admin commands (--admin-token or ADMIN_TOKEN)
	AdminToken string

	// NewPublisher connects to Google Sheets on first use so OAuth only runs when publishing
	NewPublisher func() (TablePublisher, error)
}
