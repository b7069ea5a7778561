package sqlstore

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/josoavj/Planificator/planning"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM occurrences WHERE recurrence_id = ? AND date > ?`

	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, `SELECT id FROM occurrences WHERE recurrence_id = $1 AND date > $2`, postgresDialect.rebind(q))
}

func TestSchema_SubstitutesEveryPlaceholder(t *testing.T) {
	for _, d := range []*dialect{sqliteDialect, postgresDialect} {
		assert.NotContains(t, d.schema(), "{{", d.name)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg connection", &pgconn.PgError{Code: "08006"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, false},
		{"bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"other", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)

			assert.Equal(t, tt.transient, planning.IsRetryable(err))
			assert.ErrorIs(t, err, tt.err)
			if !tt.transient {
				assert.ErrorIs(t, err, planning.ErrFatalStorage)
			}
		})
	}
}
