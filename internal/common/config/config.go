package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// Server-side stores.
	DBPath      string
	StorageRoot string

	// Viewer-side backend base URL (fixed host:port, never discovered).
	BackendURL string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
		DBPath:       getEnv("CATALOG_DB_PATH", "data/db/catalog.db"),
		StorageRoot:  getEnv("IFC_STORAGE_ROOT", "data/ifc"),
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:8000"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
