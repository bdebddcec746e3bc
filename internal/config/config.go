package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration values for the application.
// These values are loaded from a .env file at startup.
type Config struct {
	// ServerPort is the port the relay server listens on
	ServerPort string

	// RelayURL is the WebSocket endpoint the terminal client dials
	RelayURL string
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment
// variables. Falls back to sensible defaults if values are not set.
func Load() *Config {
	// Attempt to load .env file - not an error if it doesn't exist
	// as we may be running in production with real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerPort: getEnv("PORT", "5000"),
		RelayURL:   getEnv("RELAY_URL", "ws://localhost:5000/ws"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
