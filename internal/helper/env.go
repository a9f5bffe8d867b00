package helper

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt falls back when the variable is unset, malformed or not positive.
func GetEnvAsInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func GetEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(GetEnvAsInt(key, fallback)) * time.Second
}
