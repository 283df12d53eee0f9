package migrations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//nolint:gochecknoglobals // migrations are global
var migrations = migrate.NewMigrations()

func newMigrator(ctx context.Context, db *bun.DB) (*migrate.Migrator, error) {
	// Bun marks a failed migration as applied unless told otherwise, which
	// hides the failure on the next run.
	// See: https://bun.uptrace.dev/guide/migrations.html#migration-names
	migrator := migrate.NewMigrator(db, migrations,
		migrate.WithMarkAppliedOnSuccess(true),
		migrate.WithTableName("elstracker_migrations"),
		migrate.WithLocksTableName("elstracker_migration_locks"),
	)

	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}

	return migrator, nil
}

func Migrate(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}

	if err = migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck // nothing we can really do if this fails

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logger.Info("database schema is up to date")
	} else {
		logger.Info("database migrated", "group", group.String())
	}

	return nil
}

// Rollback undoes the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}

	if err = migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck // nothing we can really do if this fails

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logger.Info("there are no migrations to roll back")
	} else {
		logger.Info("database rolled back", "group", group.String())
	}

	return nil
}
