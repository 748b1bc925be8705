package main

import (
	"fmt"
	"os"

	"github.com/campuscabs/waitlist/config"
	"github.com/campuscabs/waitlist/internal/log"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrate(logger); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Database migrations completed")

	case "migrate-down":
		if err := runMigrateDown(logger, args[1:]); err != nil {
			logger.Error("Database rollback failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Database rollback completed")

	case "migrate-status":
		if err := runMigrateStatus(logger, os.Stdout); err != nil {
			logger.Error("Failed to read migration status", "error", err.Error())
			os.Exit(1)
		}

	case "stats":
		if err := runStats(logger, os.Stdout); err != nil {
			logger.Error("Failed to read waitlist stats", "error", err.Error())
			os.Exit(1)
		}

	case "check-config":
		if err := runCheckConfig(logger, os.Stdout); err != nil {
			logger.Error("Configuration check failed", "error", err.Error())
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate          Run database migrations and exit")
	fmt.Println("  migrate-down [n] Roll back the last n migrations (default 1)")
	fmt.Println("  migrate-status   Print the current schema version")
	fmt.Println("  stats            Print waitlist receipt counts per role")
	fmt.Println("  check-config     Validate the external store settings without starting the server")
}
