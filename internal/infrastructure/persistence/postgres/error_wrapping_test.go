package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/rezkam/awe/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "assignments_pkey"}
	foreignKey := &pgconn.PgError{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)), "wrapped errors are unwrapped")
	assert.False(t, isUniqueViolation(foreignKey))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))
}

// Repository errors carry the domain sentinel for callers and the driver error
// for logs.
func TestErrorWrappingKeepsBothCauses(t *testing.T) {
	driverErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	wrapped := fmt.Errorf("%w: %w", domain.ErrAlreadyAssigned, driverErr)

	assert.ErrorIs(t, wrapped, domain.ErrAlreadyAssigned)

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, wrapped, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)
}
