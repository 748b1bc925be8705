package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey      = "APP_ENV"
	envFileKey     = "ENV_FILE"
	skipDotenvKey  = "SKIP_DOTENV"
	defaultEnvFile = ".env"
)

// Environments in which --auto-migrate may touch the database.
var autoMigrateEnvs = map[string]bool{
	"": true, "dev": true, "development": true, "local": true, "test": true, "testing": true,
}

// InitializeEnvFile loads ENV_FILE (default .env) without overriding variables already set.
// A missing file is normal in containers, where SUPABASE_* comes from the environment.
func InitializeEnvFile(logger *log.Logger) {
	if skip, _ := strconv.ParseBool(utils.GetEnvTrimmed(skipDotenvKey)); skip {
		logger.Info("Skipping env file", "reason", skipDotenvKey)
		return
	}

	path := envFilePath()
	if err := godotenv.Load(path); err != nil {
		logger.Warn("Env file not loaded", "path", path, "error", err.Error())
		return
	}

	logger.Info("Env file loaded", "path", path)
}

func envFilePath() string {
	return utils.GetEnvTrimmedOrDefault(envFileKey, defaultEnvFile)
}

// GetValueFromEnvironmentVariable distinguishes unset from empty; the store and DB readers
// strip quotes and whitespace afterwards.
func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

func IsProduction(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "prod", "production":
		return true
	}
	return false
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if autoMigrateEnvs[env] {
		return nil
	}
	return fmt.Errorf("--auto-migrate is refused for %s=%q; run \"cli migrate\" against that database instead", AppEnvKey, env)
}
