package utils

import (
	"os"
	"strings"
)

// GetEnvTrimmed treats a whitespace-only value as unset.
func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if v := GetEnvTrimmed(key); v != "" {
		return v
	}
	return defaultValue
}
