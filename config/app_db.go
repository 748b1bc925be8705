package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campuscabs/waitlist/internal/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require" for prod safety
}

// DefaultDBConfig sizes the pool for the receipts table, which sees one write per accepted submission.
func DefaultDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    2,
		MaxOpenConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		SSLMode:         "require",
	}
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = DefaultDBConfig()
	}

	dsn, err := databaseDSN(cfg, logger)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

// IsDatabaseConfigured reports whether any database connection settings are present.
func IsDatabaseConfigured() bool {
	return sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", "")) != "" ||
		sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", "")) != ""
}

// NewDatabaseOrNil connects only when a database is configured. Receipts and stats are
// disabled without one; a configured but unreachable database is still an error.
func NewDatabaseOrNil(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if !IsDatabaseConfigured() {
		logger.Info("Database is not configured; waitlist receipts are disabled")
		return nil, nil
	}

	return NewDatabase(logger, cfg)
}

// databaseDSN prefers APP_DATABASE_URL and otherwise assembles a DSN from the POSTGRES_* variables.
func databaseDSN(cfg *DBConfig, logger *log.Logger) (string, error) {
	if url := sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", "")); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return url, nil
	}

	env := func(key string) string {
		return sanitizeEnv(GetValueFromEnvironmentVariable(key, ""))
	}

	host, portStr, user, dbName := env("POSTGRES_HOST"), env("POSTGRES_PORT"), env("POSTGRES_USER"), env("POSTGRES_DB_NAME")

	var missing []string
	for _, v := range []struct{ key, value string }{
		{"POSTGRES_HOST", host},
		{"POSTGRES_PORT", portStr},
		{"POSTGRES_USER", user},
		{"POSTGRES_DB_NAME", dbName},
	} {
		if v.value == "" {
			missing = append(missing, v.key)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", portStr, err)
	}

	ssl := env("POSTGRES_SSLMODE")
	if ssl == "" {
		ssl = cfg.SSLMode
	}

	logger.Info("Connecting to database", "host", host, "port", port, "user", user, "dbname", dbName, "sslmode", ssl)

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, env("POSTGRES_PASSWORD"), dbName, ssl,
	), nil
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
