package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// additiveColumns lists optional columns that older databases may be missing.
// They are added in place so existing rows are kept.
var additiveColumns = []struct {
	table      string
	column     string
	definition string
}{
	{"volunteers", "service_id", "INTEGER"},
	{"volunteers", "assigned_date", "TEXT"},
	{"volunteers", "assigned_dates", "TEXT"},
	{"subservice_assignments", "completed", "INTEGER DEFAULT 0"},
}

// DB provides database operations using SQLite
type DB struct {
	conn      *sql.DB
	logger    *zap.Logger
	migration db.MigrationReport
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDB opens the SQLite database at path. Use ":memory:" for an in-memory database.
// A single connection is kept open, so writers are serialized and an in-memory
// database lives as long as the DB.
func NewDB(ctx context.Context, path string, logger *zap.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn, logger: logger}, nil
}

// dataSourceName appends the connection options, keeping any query string already on a file: URI
func dataSourceName(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Close closes the database connection
func (d *DB) Close() {
	if err := d.conn.Close(); err != nil {
		d.logger.Warn("Failed to close database", zap.Error(err))
	}
}

// MigrationReport returns the outcome of the legacy backfill from the last RunMigrations
func (d *DB) MigrationReport() db.MigrationReport {
	return d.migration
}

// RunMigrations executes all pending SQL migration files in order, adds any missing
// optional columns, then moves legacy date mappings into volunteer_service_dates.
// Applied migrations are tracked in a schema_migrations table.
func (d *DB) RunMigrations(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := d.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		if applied[filename] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		err = d.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", filename, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)`, filename, db.Now()); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", filename, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.logger.Debug("Applied migration", zap.String("filename", filename))
	}

	if err := d.ensureColumns(ctx); err != nil {
		return err
	}

	report, err := db.BackfillLegacyDates(ctx, legacyBackfiller{d}, d.logger)
	if err != nil {
		return err
	}
	d.migration = report

	return nil
}

func (d *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

// ensureColumns adds optional columns missing from databases created by older versions
func (d *DB) ensureColumns(ctx context.Context) error {
	existing := make(map[string]map[string]bool)
	for _, c := range additiveColumns {
		if _, ok := existing[c.table]; ok {
			continue
		}
		cols, err := d.tableColumns(ctx, c.table)
		if err != nil {
			return err
		}
		existing[c.table] = cols
	}

	for _, c := range additiveColumns {
		if existing[c.table][c.column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.definition)
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", c.table, c.column, err)
		}
		d.logger.Info("Added missing column", zap.String("table", c.table), zap.String("column", c.column))
	}
	return nil
}

func (d *DB) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := d.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// legacyBackfiller runs the shared legacy date backfill against SQLite
type legacyBackfiller struct {
	d *DB
}

func (b legacyBackfiller) LegacyRows(ctx context.Context) ([]db.LegacyRow, error) {
	rows, err := b.d.conn.QueryContext(ctx, `
		SELECT id, COALESCE(assigned_date, ''), COALESCE(assigned_dates, '')
		FROM volunteers
		WHERE COALESCE(assigned_date, '') != '' OR COALESCE(assigned_dates, '') != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy volunteer dates: %w", err)
	}
	defer rows.Close()

	var legacy []db.LegacyRow
	for rows.Next() {
		var r db.LegacyRow
		if err := rows.Scan(&r.VolunteerID, &r.AssignedDate, &r.AssignedDates); err != nil {
			return nil, fmt.Errorf("failed to scan legacy volunteer dates: %w", err)
		}
		legacy = append(legacy, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy volunteer dates: %w", err)
	}
	return legacy, nil
}

func (b legacyBackfiller) BackfillVolunteer(ctx context.Context, volunteerID int64, mapping db.AssignedDates, keepJSON bool) (bool, error) {
	inserted := false
	err := b.d.withTx(ctx, func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteer_service_dates WHERE volunteer_id = ?`, volunteerID).Scan(&existing); err != nil {
			return fmt.Errorf("failed to count volunteer dates: %w", err)
		}
		if existing == 0 && len(mapping) > 0 {
			if err := insertServiceDates(ctx, tx, volunteerID, mapping); err != nil {
				return err
			}
			inserted = true
		}

		clearStmt := `UPDATE volunteers SET assigned_date = NULL, assigned_dates = NULL WHERE id = ?`
		if keepJSON {
			clearStmt = `UPDATE volunteers SET assigned_date = NULL WHERE id = ?`
		}
		if _, err := tx.ExecContext(ctx, clearStmt, volunteerID); err != nil {
			return fmt.Errorf("failed to clear legacy columns: %w", err)
		}
		return nil
	})
	return inserted, err
}

// withTx runs fn inside a transaction, committing only if fn succeeds
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// uniqueViolation reports whether err is a UNIQUE constraint failure on table.column
func uniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(sqliteErr.Error(), column)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
