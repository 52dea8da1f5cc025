// Package sqlstore implements the domain repositories on database/sql.
// The same statements run on SQLite (modernc.org/sqlite) and PostgreSQL
// (lib/pq or pgx), so every query uses numbered placeholders in order.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

const pingAttempts = 5

// Store owns the connection pool shared by the repositories.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and waits until it answers a ping,
// retrying with exponential backoff.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverPGX:
	default:
		return nil, errors.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlstore: open %s", driver)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), pingAttempts), ctx)
	err = backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, policy, func(err error, wait time.Duration) {
		logrus.WithError(err).WithField("driver", driver).Warnf("database not ready, retrying in %s", wait)
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlstore: ping")
	}

	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlstore: begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range schema {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return errors.Wrapf(err, "sqlstore: apply %q", firstLine(statement))
		}
	}
	return errors.Wrap(tx.Commit(), "sqlstore: commit migration")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// timestamp normalises times before they are written so that SQLite's
// text comparison and PostgreSQL's microsecond precision agree.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func affectedOrNotFound(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlstore: rows affected")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func firstLine(statement string) string {
	for i, r := range statement {
		if r == '(' || r == '\n' {
			return statement[:i]
		}
	}
	return statement
}
