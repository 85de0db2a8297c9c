package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. Empty DatabaseURL/RedisURL/KafkaBrokers select the in-memory or
// disabled variants, which keeps local development dependency-free.
type Config struct {
	Addr string

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	LedgerTopic  string

	// Face matcher tuning.
	FaceMatchThreshold float64
	FaceVerifyTimeout  time.Duration
	FaceWorkers        int64
	ExtractorURL       string

	// Session lifecycle.
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration

	// Expired entitlement cleanup.
	EntitlementSweepInterval time.Duration

	// Kiosk registry offline detection.
	KioskOfflineAfter  time.Duration
	KioskPruneInterval time.Duration

	// Kiosk/auditor token signing.
	JWTSigningKey string
	TokenTTL      time.Duration
}

// FromEnv builds a Config from environment variables, with development
// defaults for everything except secrets used in production.
func FromEnv() Config {
	cfg := Config{
		Addr:                     envOr("KIOSKGATE_ADDR", ":8080"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		LedgerTopic:              envOr("LEDGER_TOPIC", "kioskgate.ledger"),
		ExtractorURL:             os.Getenv("EXTRACTOR_URL"),
		FaceMatchThreshold:       envFloat("FACE_MATCH_THRESHOLD", 0.9),
		FaceVerifyTimeout:        envDuration("FACE_VERIFY_TIMEOUT", 5*time.Second),
		FaceWorkers:              int64(envInt("FACE_WORKERS", 4)),
		SessionIdleTimeout:       envDuration("SESSION_IDLE_TIMEOUT", 2*time.Minute),
		SessionSweepInterval:     envDuration("SESSION_SWEEP_INTERVAL", 30*time.Second),
		EntitlementSweepInterval: envDuration("ENTITLEMENT_SWEEP_INTERVAL", time.Hour),
		KioskOfflineAfter:        envDuration("KIOSK_OFFLINE_AFTER", 15*time.Minute),
		KioskPruneInterval:       envDuration("KIOSK_PRUNE_INTERVAL", 5*time.Minute),
		JWTSigningKey:            envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:                 envDuration("TOKEN_TTL", 12*time.Hour),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
