package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

var _ db.Database = (*DB)(nil)

func TestUniqueViolation(t *testing.T) {
	emailErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "volunteers_email_key"}

	assert.True(t, uniqueViolation(emailErr, "volunteers_email_key"))
	assert.True(t, uniqueViolation(fmt.Errorf("wrapped: %w", emailErr), "volunteers_email_key"))
	assert.False(t, uniqueViolation(emailErr, "services_name_key"))
	assert.False(t, uniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "volunteers_email_key"}, "volunteers_email_key"))
	assert.False(t, uniqueViolation(errors.New("boom"), "volunteers_email_key"))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	if got := nullString("07700"); assert.NotNil(t, got) {
		assert.Equal(t, "07700", *got)
	}
}
