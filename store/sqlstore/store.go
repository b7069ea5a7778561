/*
Package sqlstore provides the SQL implementation of planning.Store.

PURPOSE:
  Persists the planning ledger in SQLite (default, via mattn/go-sqlite3) or
  PostgreSQL (via the jackc/pgx stdlib driver). Both dialects share every
  query; placeholders are rebound and column types substituted per dialect.

KEY TABLES:
  clients, contracts, treatment_types, treatments
  recurrences:       one per treatment
  occurrences:       ids increase in generation order per recurrence
  invoices:          one per occurrence
  price_revisions:   append-only (trigger enforced)
  reschedule_events: append-only (trigger enforced)
  remarks:           append-only (trigger enforced)
  accounts, holidays

CONCURRENCY:
  SQLite is opened with a single connection: writes are serialized by the
  pool itself. Never call the Store from inside WithTx; use the Tx.

  The creation lock is an in-process mutex, plus pg_advisory_xact_lock on
  PostgreSQL so that several processes sharing a database serialize too.

ERRORS:
  Driver errors are wrapped into *planning.StorageError by classify.
  sql.ErrNoRows becomes *planning.NotFoundError.

USAGE:
  store, err := sqlstore.Open(ctx, sqlstore.Options{Driver: "sqlite3", DSN: "./data/planning.db"})
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := planning.NewService(store, planning.Options{})

MIGRATION:
  Schema is auto-migrated on Open with CREATE ... IF NOT EXISTS.

SEE ALSO:
  - planning/store.go: Interface definitions
  - dialect.go: Per-dialect schema and placeholders
  - errors.go: Driver error classification
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/josoavj/Planificator/planning"
	_ "github.com/mattn/go-sqlite3"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures Open.
type Options struct {
	Driver       string // sqlite3 or pgx
	DSN          string
	MaxOpenConns int // ignored for SQLite
}

// Store implements planning.Store.
type Store struct {
	reader

	db       *sql.DB
	dialect  *dialect
	creation sync.Mutex
}

var _ planning.Store = (*Store)(nil)

// New opens a SQLite store at path. Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	return Open(context.Background(), Options{Driver: DriverSQLite, DSN: path})
}

// Open connects, configures the pool and migrates the schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, ok := dialectFor(opts.Driver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	dsn := opts.DSN
	if d == sqliteDialect {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d == sqliteDialect {
		// One connection: an in-memory database lives and dies with it,
		// and SQLite has a single writer anyway.
		db.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, dialect: d}
	s.reader = reader{q: db, d: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the dialect name: sqlite3 or pgx.
func (s *Store) Driver() string { return s.dialect.name }

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema()); err != nil {
		return err
	}
	log.Printf("[Store] %s schema ready", s.dialect.name)
	return nil
}

// =============================================================================
// TRANSACTIONS (planning.Store)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(planning.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := fn(newTxStore(sqlTx, s.dialect)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// WithCreationLock is WithTx serialized against every other creation.
func (s *Store) WithCreationLock(ctx context.Context, fn func(planning.Tx) error) error {
	s.creation.Lock()
	defer s.creation.Unlock()

	return s.WithTx(ctx, func(tx planning.Tx) error {
		if s.dialect == postgresDialect {
			ts := tx.(*txStore)
			if _, err := ts.reader.q.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", int64(creationLockKey)); err != nil {
				return classify("acquire creation lock", err)
			}
		}
		return fn(tx)
	})
}

type txStore struct {
	reader
	writer
}

func newTxStore(tx *sql.Tx, d *dialect) *txStore {
	return &txStore{
		reader: reader{q: tx, d: d},
		writer: writer{q: tx, d: d},
	}
}
