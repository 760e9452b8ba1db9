package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the booking core.
type Config struct {
	Environment string

	// OfferTimeout is how long a waitlisted user has to confirm an offered
	// slot before being requeued.
	OfferTimeout time.Duration

	// TickInterval is how often the scheduler re-evaluates waitlist offers.
	TickInterval time.Duration

	// SnapshotTTL bounds staleness of cached display snapshots.
	SnapshotTTL time.Duration

	// MaxTopics and MaxInterests bound the list fields on conference and
	// user records.
	MaxTopics    int
	MaxInterests int
}

// Load loads configuration from environment variables, reading a .env file
// first outside production.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production the .env file may not exist; system environment
	// variables are the source of truth there.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	return &Config{
		Environment:  env,
		OfferTimeout: envDuration("OFFER_TIMEOUT", time.Hour),
		TickInterval: envDuration("TICK_INTERVAL", time.Minute),
		SnapshotTTL:  envDuration("SNAPSHOT_TTL", 2*time.Second),
		MaxTopics:    envInt("MAX_TOPICS", 10),
		MaxInterests: envInt("MAX_INTERESTS", 50),
	}, nil
}

func envDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", key, s, def)
		return def
	}
	return d
}

func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s %q, using %d", key, s, def)
		return def
	}
	return n
}
