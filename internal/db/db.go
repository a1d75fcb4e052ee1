package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Open connects to the database, retrying while it comes up.
func Open(driver, dsn string) (*sqlx.DB, error) {
	const maxRetries = 10
	const retryInterval = 2 * time.Second
	var (
		conn *sqlx.DB
		err  error
	)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err = sqlx.Connect(driver, dsn)
		if err == nil {
			log.Info().Str("driver", driver).Msg("connected to database")
			break
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		time.Sleep(retryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
	}

	// sqlite allows a single writer
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

// Migrate applies the embedded migrations for the connection's dialect.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch conn.DriverName() {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return fmt.Errorf("unsupported driver %q", conn.DriverName())
	}

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, conn.DB, sub)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied migration")
	}
	return nil
}
