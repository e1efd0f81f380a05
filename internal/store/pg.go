package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var postgresDialect = dialect{name: "postgres", numbered: true, classify: classifyPg}

// OpenPostgres opens a pgx-backed pool. The schema is managed by internal/migrate.
func OpenPostgres(dsn string, opts ...Option) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return newDB(db, postgresDialect, opts...), nil
}

// NewPostgres wraps an existing pool using the PostgreSQL dialect.
func NewPostgres(db *sql.DB, opts ...Option) *DB {
	return newDB(db, postgresDialect, opts...)
}

func classifyPg(err error) errClass {
	pgErr, ok := maybePgError(err)
	if !ok {
		return errOther
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return errUnique
	case pgErrForeignKeyViolation:
		return errForeignKey
	}
	return errOther
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
