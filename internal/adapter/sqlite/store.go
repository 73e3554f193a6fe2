// Package sqlite persists the occupancy and billing state. The Store is the
// transaction coordinator: multi-table mutations run through RunAtomic,
// scoped to per-room and per-operation keys.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/domain"
	"github.com/neomorfeo/aquamotel/internal/keymutex"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// read helpers work both directly and inside an atomic group.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements domain.BillingStore using SQLite.
type Store struct {
	reads
	db    *sql.DB
	locks *keymutex.KeyMutex
}

// Compile-time check: Store implements domain.BillingStore.
var _ domain.BillingStore = (*Store)(nil)

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Serialize all access through a single connection; a second writer on
	// its own connection would fail with SQLITE_BUSY instead of queueing.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready store. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{
		reads: reads{q: db},
		db:    db,
		locks: keymutex.New(),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// RunAtomic acquires the locks for keys (sorted, so two groups sharing keys
// cannot deadlock), runs fn inside a transaction, and commits on success.
// On any failure, including context cancellation, the transaction is rolled
// back and fn's error is propagated unchanged.
func (s *Store) RunAtomic(ctx context.Context, keys []string, fn func(tx domain.BillingTx) error) error {
	ks := append([]string(nil), keys...)
	slices.Sort(ks)
	ks = slices.Compact(ks)

	acquired := make([]string, 0, len(ks))
	defer func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			s.locks.Release(acquired[i])
		}
	}()

	for _, k := range ks {
		if err := s.locks.Acquire(ctx, k); err != nil {
			return &domain.StorageError{Op: "acquiring " + k, Err: err}
		}
		acquired = append(acquired, k)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "beginning transaction", Err: err}
	}

	view := &txView{reads: reads{q: tx}, tx: tx}
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return &domain.StorageError{Op: "committing transaction", Err: err}
	}

	return nil
}

// txView is the transactional view of storage handed to RunAtomic callbacks.
type txView struct {
	reads
	tx *sql.Tx
}

// Compile-time check: txView implements domain.BillingTx.
var _ domain.BillingTx = (*txView)(nil)

const timeFormat = "2006-01-02T15:04:05Z"

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation checks if a SQLite error is a FOREIGN KEY constraint
// violation.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing stored decimal %q: %w", s, err)
	}
	return d, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}
