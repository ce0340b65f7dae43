package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "tickets_event_user_tier_key"}

	assert.True(t, IsUniqueViolation(pgxErr, ""))
	assert.True(t, IsUniqueViolation(pgxErr, "tickets_event_user_tier_key"))
	assert.False(t, IsUniqueViolation(pgxErr, "other_constraint"))

	sqliteErr := errors.New("UNIQUE constraint failed: tickets.event_id, tickets.external_user_id, tickets.tier_id")
	assert.True(t, IsUniqueViolation(sqliteErr, ""))

	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
}
