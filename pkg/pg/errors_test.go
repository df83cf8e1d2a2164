package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/orbion/subledger/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	wrap := func(code string) error {
		return fmt.Errorf("query failed: %w", &pgconn.PgError{Code: code})
	}

	tests := []struct {
		name  string
		check func(error) bool
		match error
		other error
	}{
		{"not found", pg.IsNotFoundError, fmt.Errorf("scan: %w", pgx.ErrNoRows), errors.New("x")},
		{"duplicate key", pg.IsDuplicateKeyError, wrap("23505"), wrap("23503")},
		{"foreign key", pg.IsForeignKeyViolationError, wrap("23503"), wrap("23505")},
		{"lock not available", pg.IsLockNotAvailableError, wrap("55P03"), wrap("40001")},
		{"serialization", pg.IsSerializationError, wrap("40001"), wrap("55P03")},
		{"deadlock", pg.IsSerializationError, wrap("40P01"), wrap("23505")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.check(tt.match))
			assert.False(t, tt.check(tt.other))
			assert.False(t, tt.check(nil))
		})
	}
}
