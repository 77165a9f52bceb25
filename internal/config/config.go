package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ArchiveDir      string
	ArchiveBackend  string
	ArchiveOrder    []string
	OverrideArchive string
	DatabaseURL     string
	EntityFile      string
	DefaultArchive  string
	WorkerCount     int
	LogLevel        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		ArchiveDir:      getEnv("ARCHIVE_DIR", "."),
		ArchiveBackend:  getEnv("ARCHIVE_BACKEND", "dir"),
		ArchiveOrder:    getEnvList("ARCHIVE_ORDER"),
		OverrideArchive: getEnv("OVERRIDE_ARCHIVE", ""),
		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/astra_msgdb?sslmode=disable"),
		EntityFile:      getEnv("ENTITY_FILE", ""),
		DefaultArchive:  getEnv("DEFAULT_ARCHIVE", "gamedata"),
		WorkerCount:     getEnvInt("WORKER_COUNT", 8),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// getEnvList splits a comma-separated variable, dropping blank items.
func getEnvList(key string) []string {
	var items []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
