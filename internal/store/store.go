// Package store persists credentials and NGO records through database/sql.
// PostgreSQL (pgx) and SQLite (modernc) share the same queries; the dialect
// only decides placeholder style and how constraint errors are recognized.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var errNoDB = errors.New("database connection unavailable")

type errClass int

const (
	errOther errClass = iota
	errUnique
	errForeignKey
)

type dialect struct {
	name     string
	numbered bool
	classify func(error) errClass
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders for dialects using positional '?'.
// Queries must reference every placeholder once, in ascending order.
func (d dialect) rebind(query string) string {
	if d.numbered {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

// DB is the persistence layer of the service.
type DB struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Option configures DB.
type Option func(*DB)

// WithClock overrides the timestamp source used for created_at/updated_at.
func WithClock(fn func() time.Time) Option {
	return func(s *DB) {
		if fn != nil {
			s.now = fn
		}
	}
}

// Open connects to the database for driver ("pgx" or "sqlite").
func Open(driver, dsn string, opts ...Option) (*DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "postgres", "postgresql":
		return OpenPostgres(dsn, opts...)
	case DriverSQLite, "sqlite3":
		return OpenSQLite(dsn, opts...)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

func newDB(db *sql.DB, d dialect, opts ...Option) *DB {
	s := &DB{db: db, dialect: d, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the connection pool.
func (s *DB) Close() error { return s.db.Close() }

// SQL exposes the underlying pool (migrations, readiness probe).
func (s *DB) SQL() *sql.DB { return s.db }

// Dialect returns "postgres" or "sqlite".
func (s *DB) Dialect() string { return s.dialect.name }

// Ping checks connectivity.
func (s *DB) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	return s.db.PingContext(ctx)
}

func (s *DB) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
