// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary needs no C compiler
// and cross-compiles like any other Go program. ":memory:" gives each test
// its own throwaway database.
//
// ONE CONNECTION:
// The pool is capped at a single open connection. SQLite only ever has one
// writer, and holding everything on one connection means a transaction
// serialises every read-modify-write that runs inside it (membership
// upsert, reaction upsert plus rating recompute). It also keeps a ":memory:"
// database alive and shared for the lifetime of the *DB.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/shared-calendar/internal/repository"
)

// querier is the subset of *sql.DB and *sql.Tx the stores need. Every store
// is written against it, so the same code runs inside or outside InTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB owns the connection pool and hands out stores bound to it.
// A DB returned to an InTx callback is bound to the transaction instead and
// has a nil conn.
type DB struct {
	conn *sql.DB
	q    querier
}

var _ repository.Store = (*DB)(nil)

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/calendar.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, q: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. It is a no-op on a transaction-bound DB.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks the underlying connection. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return nil
	}
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() repository.UserRepository             { return &UserStore{q: db.q} }
func (db *DB) Tokens() repository.TokenRepository           { return &TokenStore{q: db.q} }
func (db *DB) Calendars() repository.CalendarRepository     { return &CalendarStore{q: db.q} }
func (db *DB) Memberships() repository.MembershipRepository { return &MembershipStore{q: db.q} }
func (db *DB) Events() repository.EventRepository           { return &EventStore{q: db.q} }
func (db *DB) Reactions() repository.ReactionRepository     { return &ReactionStore{q: db.q} }

// InTx runs fn inside a transaction.
//
// Calling InTx on a DB that is already bound to a transaction reuses that
// transaction, so services can compose operations without caring whether
// a caller already opened one.
func (db *DB) InTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if db.conn == nil {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cerr)
		}
	}()

	return fn(&DB{q: tx})
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			tg            TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			phone         TEXT NOT NULL DEFAULT '',
			active        BOOLEAN NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			id         TEXT PRIMARY KEY,
			value      TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			revoked    BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tokens table: %w", err)
	}

	// tag is unique across active and inactive calendars alike.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS calendars (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			tag         TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			public      BOOLEAN NOT NULL DEFAULT 0,
			active      BOOLEAN NOT NULL DEFAULT 1,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating calendars table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS memberships (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			calendar_id TEXT NOT NULL REFERENCES calendars(id),
			role        TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, calendar_id)
		);
		CREATE INDEX IF NOT EXISTS idx_memberships_calendar_id ON memberships(calendar_id);
	`)
	if err != nil {
		return fmt.Errorf("creating memberships table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id             TEXT PRIMARY KEY,
			calendar_id    TEXT NOT NULL REFERENCES calendars(id),
			user_id        TEXT NOT NULL REFERENCES users(id),
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			address        TEXT NOT NULL DEFAULT '',
			start_at       DATETIME NOT NULL,
			end_at         DATETIME NOT NULL,
			status         TEXT NOT NULL,
			average_rating REAL NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_calendar_id ON events(calendar_id);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reactions (
			id         TEXT PRIMARY KEY,
			event_id   TEXT NOT NULL REFERENCES events(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			score      REAL NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, event_id)
		);
		CREATE INDEX IF NOT EXISTS idx_reactions_event_id ON reactions(event_id);
	`)
	if err != nil {
		return fmt.Errorf("creating reactions table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE (or PRIMARY KEY)
// constraint. The driver reports extended result codes, so the primary
// code lives in the low byte.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

// orderClause builds a safe ORDER BY clause. column must already be
// validated against a whitelist; alias prefixes it when the query joins.
func orderClause(alias, column string) string {
	if alias != "" {
		return fmt.Sprintf("ORDER BY %s.%s ASC, %s.id ASC", alias, column, alias)
	}
	return fmt.Sprintf("ORDER BY %s ASC, id ASC", column)
}
