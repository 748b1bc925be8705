package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/campuscabs/waitlist/config"
	"github.com/campuscabs/waitlist/domain/waitlist"
	"github.com/campuscabs/waitlist/internal/log"
)

// printStats writes receipt counts per role. Personal details live only in the external store.
func printStats(ctx context.Context, out io.Writer, receipts waitlist.ReceiptRepository) error {
	counts, err := receipts.CountByRole(ctx)
	if err != nil {
		return err
	}

	stats := waitlist.ToStatsResponse(counts)
	fmt.Fprintf(out, "riders:  %d\n", stats.Riders)
	fmt.Fprintf(out, "drivers: %d\n", stats.Drivers)
	fmt.Fprintf(out, "total:   %d\n", stats.Total)
	return nil
}

func runStats(logger *log.Logger, out io.Writer) error {
	if !config.IsDatabaseConfigured() {
		return fmt.Errorf("stats need a database: set APP_DATABASE_URL or POSTGRES_*")
	}

	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return printStats(ctx, out, waitlist.NewReceiptRepository(db))
}

// runCheckConfig fails the same way the server would when the external store is misconfigured.
func runCheckConfig(logger *log.Logger, out io.Writer) error {
	storeConfig := config.NewStoreConfig()
	if err := storeConfig.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "store:    %s (table %q, timeout %s)\n", storeConfig.URL, storeConfig.Table, storeConfig.Timeout)
	fmt.Fprintf(out, "database: %t\n", config.IsDatabaseConfigured())
	fmt.Fprintf(out, "redis:    %t\n", config.NewCacheConfig().IsConfigured())

	logger.Info("Configuration check passed")
	return nil
}
