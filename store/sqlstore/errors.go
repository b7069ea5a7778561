package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/josoavj/Planificator/planning"
	"github.com/mattn/go-sqlite3"
)

// classify wraps a driver error into a *planning.StorageError. Busy and
// locked SQLite databases, PostgreSQL serialization failures, deadlocks and
// connection exceptions, and dropped connections are transient. Everything
// else, constraint violations included, is fatal.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *planning.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &planning.StorageError{Op: op, Transient: isTransient(err), Err: err}
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08") // connection_exception
	}

	return pgconn.SafeToRetry(err)
}

// notFound maps sql.ErrNoRows to a NotFoundError and classifies the rest.
func notFound(op, entity string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &planning.NotFoundError{Entity: entity, ID: id}
	}
	return classify(op, err)
}
