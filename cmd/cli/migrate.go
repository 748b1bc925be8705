package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/campuscabs/waitlist/config"
	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/pkg/migrations"
	"github.com/campuscabs/waitlist/pkg/utils"
)

const migrateTimeout = 5 * time.Minute

func migrationsConfig(logger *log.Logger) migrations.Config {
	return migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Logger: logger,
	}
}

// withSQLDB opens the receipts database, hands its *sql.DB to fn and closes it afterwards.
func withSQLDB(logger *log.Logger, fn func(ctx context.Context, db *sql.DB) error) error {
	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	return fn(ctx, sqlDB)
}

func runMigrate(logger *log.Logger) error {
	return withSQLDB(logger, func(ctx context.Context, db *sql.DB) error {
		return migrations.Up(ctx, db, migrationsConfig(logger))
	})
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(args[0])
	if err != nil || steps < 1 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", args[0])
	}
	return steps, nil
}

func runMigrateDown(logger *log.Logger, args []string) error {
	steps, err := parseSteps(args)
	if err != nil {
		return err
	}

	return withSQLDB(logger, func(ctx context.Context, db *sql.DB) error {
		return migrations.Rollback(ctx, db, migrationsConfig(logger), steps)
	})
}

func printMigrationStatus(out io.Writer, status migrations.Status) {
	switch {
	case status.Empty:
		fmt.Fprintln(out, "version: none")
	case status.Dirty:
		fmt.Fprintf(out, "version: %d (dirty)\n", status.Version)
	default:
		fmt.Fprintf(out, "version: %d\n", status.Version)
	}
}

func runMigrateStatus(logger *log.Logger, out io.Writer) error {
	return withSQLDB(logger, func(ctx context.Context, db *sql.DB) error {
		status, err := migrations.Version(ctx, db, migrationsConfig(logger))
		if err != nil {
			return err
		}
		printMigrationStatus(out, status)
		return nil
	})
}
