package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

// Migrator applies the embedded schema migrations using golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  zerolog.Logger
}

// NewMigrator reads NNNNNN_name.{up,down}.sql files from migrations and
// tracks applied versions in schema_migrations. It holds one pooled
// connection until Close, so db stays usable by the caller.
func NewMigrator(ctx context.Context, db *sql.DB, migrations fs.FS, logger zerolog.Logger) (*Migrator, error) {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		source.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		source.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		logger:  logger.With().Str("component", "migrator").Logger(),
	}, nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info().Msg("No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.migrate.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	m.logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migrations completed")
	return nil
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info().Msg("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.logger.Info().Msg("All migrations rolled back")
	return nil
}

// Version reports the current schema version. ok is false before the first migration.
func (m *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, true, nil
}

// Close releases the source and the connection held for migrations
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrate brings the schema up to date
func Migrate(ctx context.Context, db *sql.DB, migrations fs.FS, logger zerolog.Logger) error {
	m, err := NewMigrator(ctx, db, migrations, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
