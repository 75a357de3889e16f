package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

const volunteerColumns = `v.id, v.name, v.email, COALESCE(v.phone, ''), v.committed_weekly, v.created_at`

// InsertVolunteer inserts a volunteer and their date mapping in one transaction
func (d *DB) InsertVolunteer(ctx context.Context, volunteer *db.Volunteer) (int64, error) {
	if volunteer.CreatedAt == "" {
		volunteer.CreatedAt = db.Now()
	}

	var id int64
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO volunteers (name, email, phone, committed_weekly, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, volunteer.Name, volunteer.Email, nullString(volunteer.Phone), volunteer.CommittedWeekly, volunteer.CreatedAt).Scan(&id)
		if err != nil {
			if uniqueViolation(err, "volunteers_email_key") {
				return db.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to insert volunteer: %w", err)
		}
		return insertServiceDates(ctx, tx, id, volunteer.AssignedDates)
	})
	if err != nil {
		return 0, err
	}

	volunteer.ID = id
	return id, nil
}

// ListVolunteers retrieves volunteers created within the range, newest first
func (d *DB) ListVolunteers(ctx context.Context, created db.CreatedRange) ([]db.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers v WHERE TRUE`
	var args []any
	if created.Start != "" {
		args = append(args, created.Start)
		query += fmt.Sprintf(` AND v.created_at >= $%d`, len(args))
	}
	if created.End != "" {
		args = append(args, created.End)
		query += fmt.Sprintf(` AND v.created_at <= $%d`, len(args))
	}
	query += ` ORDER BY v.created_at DESC, v.id DESC`

	return d.queryVolunteers(ctx, query, args...)
}

// GetVolunteerByEmail retrieves a single volunteer, or nil if the email is unknown
func (d *DB) GetVolunteerByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	volunteers, err := d.queryVolunteers(ctx, `SELECT `+volunteerColumns+` FROM volunteers v WHERE v.email = $1`, email)
	if err != nil {
		return nil, err
	}
	if len(volunteers) == 0 {
		return nil, nil
	}
	return &volunteers[0], nil
}

// ReplaceVolunteerServiceDates replaces the dates held for one service and sets committed_weekly
func (d *DB) ReplaceVolunteerServiceDates(ctx context.Context, email string, serviceID int64, dates []string, committedWeekly bool) (bool, error) {
	found := false
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		var volunteerID int64
		err := tx.QueryRow(ctx, `
			UPDATE volunteers SET committed_weekly = $2 WHERE email = $1 RETURNING id
		`, email, committedWeekly).Scan(&volunteerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to update volunteer: %w", err)
		}
		found = true

		if _, err := tx.Exec(ctx, `DELETE FROM volunteer_service_dates WHERE volunteer_id = $1 AND service_id = $2`, volunteerID, serviceID); err != nil {
			return fmt.Errorf("failed to clear service dates: %w", err)
		}
		return insertServiceDates(ctx, tx, volunteerID, db.AssignedDates{serviceID: dates})
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// UpdateVolunteer overwrites every mutable field, including the whole date mapping
func (d *DB) UpdateVolunteer(ctx context.Context, volunteer *db.Volunteer) (bool, error) {
	changed := false
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE volunteers SET name = $2, email = $3, phone = $4, committed_weekly = $5 WHERE id = $1
		`, volunteer.ID, volunteer.Name, volunteer.Email, nullString(volunteer.Phone), volunteer.CommittedWeekly)
		if err != nil {
			if uniqueViolation(err, "volunteers_email_key") {
				return db.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to update volunteer: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		changed = true

		if _, err := tx.Exec(ctx, `DELETE FROM volunteer_service_dates WHERE volunteer_id = $1`, volunteer.ID); err != nil {
			return fmt.Errorf("failed to clear volunteer dates: %w", err)
		}
		return insertServiceDates(ctx, tx, volunteer.ID, volunteer.AssignedDates)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// DeleteVolunteer deletes the volunteer's assignments and dates, then the volunteer
func (d *DB) DeleteVolunteer(ctx context.Context, volunteerID int64) (bool, error) {
	deleted := false
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM subservice_assignments WHERE volunteer_id = $1`, volunteerID); err != nil {
			return fmt.Errorf("failed to delete volunteer assignments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM volunteer_service_dates WHERE volunteer_id = $1`, volunteerID); err != nil {
			return fmt.Errorf("failed to delete volunteer dates: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM volunteers WHERE id = $1`, volunteerID)
		if err != nil {
			return fmt.Errorf("failed to delete volunteer: %w", err)
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ListVolunteersForDate retrieves volunteers holding date for any service, ordered by name
func (d *DB) ListVolunteersForDate(ctx context.Context, date string) ([]db.Volunteer, error) {
	return d.queryVolunteers(ctx, `
		SELECT `+volunteerColumns+` FROM volunteers v
		WHERE EXISTS (
			SELECT 1 FROM volunteer_service_dates d WHERE d.volunteer_id = v.id AND d.date = $1
		)
		ORDER BY v.name, v.id
	`, date)
}

func (d *DB) queryVolunteers(ctx context.Context, query string, args ...any) ([]db.Volunteer, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []db.Volunteer
	var ids []int64
	for rows.Next() {
		var v db.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.CommittedWeekly, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}
	rows.Close()

	if len(volunteers) == 0 {
		return volunteers, nil
	}

	mappings, err := d.loadAssignedDates(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range volunteers {
		volunteers[i].AssignedDates = mappings[volunteers[i].ID]
	}
	return volunteers, nil
}

func (d *DB) loadAssignedDates(ctx context.Context, volunteerIDs []int64) (map[int64]db.AssignedDates, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT volunteer_id, service_id, date FROM volunteer_service_dates
		WHERE volunteer_id = ANY($1)
		ORDER BY volunteer_id, service_id, position
	`, volunteerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer dates: %w", err)
	}
	defer rows.Close()

	mappings := make(map[int64]db.AssignedDates)
	for rows.Next() {
		var volunteerID, serviceID int64
		var date string
		if err := rows.Scan(&volunteerID, &serviceID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer date: %w", err)
		}
		if mappings[volunteerID] == nil {
			mappings[volunteerID] = make(db.AssignedDates)
		}
		mappings[volunteerID][serviceID] = append(mappings[volunteerID][serviceID], date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteer dates: %w", err)
	}
	return mappings, nil
}

func insertServiceDates(ctx context.Context, q execer, volunteerID int64, mapping db.AssignedDates) error {
	normalized := mapping.Normalize()
	for _, serviceID := range normalized.ServiceIDs() {
		for position, date := range normalized[serviceID] {
			_, err := q.Exec(ctx, `
				INSERT INTO volunteer_service_dates (volunteer_id, service_id, date, position)
				VALUES ($1, $2, $3, $4)
			`, volunteerID, serviceID, date, position)
			if err != nil {
				return fmt.Errorf("failed to insert volunteer date: %w", err)
			}
		}
	}
	return nil
}
