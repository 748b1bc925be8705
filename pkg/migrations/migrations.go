// Package migrations applies the SQL files under migrations/ to the receipts database.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	defaultDir   = "migrations"
	defaultTable = "schema_migrations"
)

var ErrNilDB = errors.New("migrations: db is nil")

type migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = defaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = defaultTable
	}
	return cfg
}

func (cfg Config) info(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Info(msg, args...)
	}
}

// sourceURL turns dir into a file:// URL with forward slashes and escaping applied.
func sourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Status is the schema version recorded in the migrations table.
type Status struct {
	Version uint
	Dirty   bool
	// Empty is true when no migration has ever been applied.
	Empty bool
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	return run(ctx, db, cfg, "up", func(m migrator) error {
		return m.Up()
	})
}

// Rollback reverts the last steps migrations.
func Rollback(ctx context.Context, db *sql.DB, cfg Config, steps int) error {
	if steps < 1 {
		return fmt.Errorf("migrations: steps must be at least 1, got %d", steps)
	}
	return run(ctx, db, cfg, "down", func(m migrator) error {
		return m.Steps(-steps)
	})
}

// Version reports the current schema version without changing anything.
func Version(ctx context.Context, db *sql.DB, cfg Config) (Status, error) {
	var status Status
	err := run(ctx, db, cfg, "version", func(m migrator) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			status.Empty = true
			return nil
		}
		status.Version, status.Dirty = v, dirty
		return err
	})
	return status, err
}

// run opens a migrator, runs op and closes it. migrate has no context support,
// so cancellation closes the migrator and returns without waiting for op.
func run(ctx context.Context, db *sql.DB, cfg Config, name string, op func(migrator) error) error {
	if db == nil {
		return ErrNilDB
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg = cfg.withDefaults()

	source, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(source, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var once sync.Once
	closeMigrator := func() {
		once.Do(func() {
			srcErr, dbErr := m.Close()
			if cfg.Logger == nil {
				return
			}
			if srcErr != nil {
				cfg.Logger.Warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.Logger.Warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "op", name, "source", source, "table", cfg.MigrationsTable)

	errCh := make(chan error, 1)
	go func() { errCh <- op(m) }()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			cfg.info("No migrations to apply", "op", name)
			return nil
		case err != nil:
			return fmt.Errorf("migrations: %s: %w", name, err)
		}
	}

	cfg.info("Migrations finished", "op", name)
	return nil
}
