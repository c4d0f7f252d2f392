// Package config loads runtime configuration from the environment, with
// a .env file as fallback for local development.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob.
type Config struct {
	ServerPort string
	// DatabaseURL selects the postgres record store; the in-memory store
	// is used when empty.
	DatabaseURL  string
	OTLPEndpoint string

	DefaultTradeLimit           int
	DefaultIncompleteTradeLimit int
	DefaultMinimumToBorrow      int
}

// Load reads the environment, after loading .env if present.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: load .env: %v", err)
	}

	return Config{
		ServerPort:                  getenv("SERVER_PORT", "8080"),
		DatabaseURL:                 os.Getenv("DATABASE_URL"),
		OTLPEndpoint:                os.Getenv("OTLP_ENDPOINT"),
		DefaultTradeLimit:           getint("DEFAULT_TRADE_LIMIT", 10),
		DefaultIncompleteTradeLimit: getint("DEFAULT_INCOMPLETE_TRADE_LIMIT", 3),
		DefaultMinimumToBorrow:      getint("DEFAULT_MINIMUM_TO_BORROW", 1),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}
