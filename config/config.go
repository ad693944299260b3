package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL    string
	Port     string
	LogLevel string

	// MCMaxSimulations and MCMaxMonths cap Monte Carlo request sizes so a
	// runaway num_simulations * investment_months can't exhaust memory.
	MCMaxSimulations int
	MCMaxMonths      int
}

// Load reads configuration from environment variables.
// If a .env file exists, it will be loaded first, but shell environment
// variables take precedence over .env values.
func Load() (*Config, error) {
	// Load .env file if it exists (does not override existing env vars)
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	LogLevel := os.Getenv("LOGLEVEL")
	if LogLevel == "" {
		LogLevel = "Warning"
	}

	mcMaxSimulations := intEnv("MC_MAX_SIMULATIONS", 5000)
	mcMaxMonths := intEnv("MC_MAX_MONTHS", 480) // 40 years

	return &Config{
		PGURL:            pgURL,
		Port:             port,
		LogLevel:         LogLevel,
		MCMaxSimulations: mcMaxSimulations,
		MCMaxMonths:      mcMaxMonths,
	}, nil
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
