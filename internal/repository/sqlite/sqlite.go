// Package sqlite implements repository.Store on an embedded SQLite file through
// database/sql and the pure-Go modernc.org/sqlite driver.
//
// CONNECTION SETTINGS:
// Every pooled connection is opened with the same pragmas, passed through the
// DSN so that new connections created by the pool get them too:
//   - busy_timeout(5000): a writer waits up to 5s for the lock instead of failing
//   - foreign_keys(1):   tokens and seats must reference an existing user
//   - journal_mode(WAL): readers do not block the single writer
//
// _txlock=immediate makes BEGIN take the write lock up front, so two
// transactions never deadlock upgrading from a read lock.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const pragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and brings the schema up to
// date. Opening an existing file reattaches to its data.
//
// dbPath examples:
//   - "data/chess.db" → file-based database
//   - ":memory:"      → private in-memory database, lost on Close
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + pragmas
}

// Close closes the connection pool. Call it once, when the process stops.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies the embedded migrations. Already-applied versions are
// skipped, so it is safe on every startup.
//
// The migrate instance is deliberately not closed: its Close would also close
// db.conn.
func (db *DB) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// withTx runs fn inside one transaction. The transaction is rolled back on any
// error and on panic; fn must not commit or roll back itself.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Storage(fmt.Errorf("sqlite: beginning transaction: %w", err))
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage(fmt.Errorf("sqlite: committing transaction: %w", err))
	}
	return nil
}

// storageErr tags a driver error as a storage failure with context.
func storageErr(op string, err error) error {
	return apperror.Storage(fmt.Errorf("sqlite: %s: %w", op, err))
}

func sqliteCode(err error) (int, bool) {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return 0, false
	}
	return sqErr.Code(), true
}

// isUniqueViolation reports a PRIMARY KEY or UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}
