package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolationCode = "23505"

// additiveColumns lists optional columns that older databases may be missing
var additiveColumns = []struct {
	table      string
	column     string
	definition string
}{
	{"volunteers", "service_id", "BIGINT"},
	{"volunteers", "assigned_date", "TEXT"},
	{"volunteers", "assigned_dates", "TEXT"},
	{"subservice_assignments", "completed", "BOOLEAN NOT NULL DEFAULT FALSE"},
}

// DB provides database operations using PostgreSQL
type DB struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	migration db.MigrationReport
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewDB creates a new PostgreSQL database connection
func NewDB(ctx context.Context, connString string, logger *zap.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, logger: logger}, nil
}

// Close closes the database connection pool
func (d *DB) Close() {
	d.pool.Close()
}

// MigrationReport returns the outcome of the legacy backfill from the last RunMigrations
func (d *DB) MigrationReport() db.MigrationReport {
	return d.migration
}

// RunMigrations executes all pending SQL migration files in order.
// It tracks which migrations have been applied in a schema_migrations table,
// then adds missing optional columns and moves legacy date mappings.
func (d *DB) RunMigrations(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied := make(map[string]bool)
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied[filename] = true
	}
	rows.Close()

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

		err = d.withTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", filename, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", filename, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.logger.Debug("Applied migration", zap.String("filename", filename))
	}

	for _, c := range additiveColumns {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", c.table, c.column, c.definition)
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", c.table, c.column, err)
		}
	}

	report, err := db.BackfillLegacyDates(ctx, legacyBackfiller{d}, d.logger)
	if err != nil {
		return err
	}
	d.migration = report

	return nil
}

// legacyBackfiller runs the shared legacy date backfill against PostgreSQL
type legacyBackfiller struct {
	d *DB
}

func (b legacyBackfiller) LegacyRows(ctx context.Context) ([]db.LegacyRow, error) {
	rows, err := b.d.pool.Query(ctx, `
		SELECT id, COALESCE(assigned_date, ''), COALESCE(assigned_dates, '')
		FROM volunteers
		WHERE COALESCE(assigned_date, '') <> '' OR COALESCE(assigned_dates, '') <> ''
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
	err := b.d.withTx(ctx, func(tx pgx.Tx) error {
		var existing int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM volunteer_service_dates WHERE volunteer_id = $1`, volunteerID).Scan(&existing); err != nil {
			return fmt.Errorf("failed to count volunteer dates: %w", err)
		}
		if existing == 0 && len(mapping) > 0 {
			if err := insertServiceDates(ctx, tx, volunteerID, mapping); err != nil {
				return err
			}
			inserted = true
		}

		clearStmt := `UPDATE volunteers SET assigned_date = NULL, assigned_dates = NULL WHERE id = $1`
		if keepJSON {
			clearStmt = `UPDATE volunteers SET assigned_date = NULL WHERE id = $1`
		}
		if _, err := tx.Exec(ctx, clearStmt, volunteerID); err != nil {
			return fmt.Errorf("failed to clear legacy columns: %w", err)
		}
		return nil
	})
	return inserted, err
}

// withTx runs fn inside a transaction, committing only if fn succeeds
func (d *DB) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// uniqueViolation reports whether err is a unique violation of the named constraint
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
