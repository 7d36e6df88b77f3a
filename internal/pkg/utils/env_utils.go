package utils

import "os"

// GetEnv returns the environment variable value or a fallback when unset.
func GetEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
