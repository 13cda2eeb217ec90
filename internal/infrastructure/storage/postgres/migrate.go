package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"retailops/internal/infrastructure/storage/postgres/migrations"
	"retailops/pkg/logger"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens a migrator for databaseURL (postgres:// or postgresql://).
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, MigrateURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// MigrateURL rewrites a libpq URL to the pgx5 scheme the migrate driver registers.
func MigrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

// Up applies all pending migrations.
func (mg *Migrator) Up(ctx context.Context) error {
	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return mg.logVersion(ctx, "migrations applied")
}

// Down rolls back all migrations.
func (mg *Migrator) Down(ctx context.Context) error {
	err := mg.m.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	logger.Info(ctx, "all migrations rolled back")
	return nil
}

// Steps applies n migrations (positive = up, negative = down).
func (mg *Migrator) Steps(ctx context.Context, n int) error {
	err := mg.m.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return mg.logVersion(ctx, "migration steps applied")
}

// Force sets the version without running migrations, clearing the dirty flag.
func (mg *Migrator) Force(ctx context.Context, version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	logger.Warn(ctx, "migration version forced", "version", version)
	return nil
}

// Version reports the current schema version.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) logVersion(ctx context.Context, msg string) error {
	v, dirty, err := mg.Version()
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}
	logger.Info(ctx, msg, "version", v, "dirty", dirty)
	return nil
}
