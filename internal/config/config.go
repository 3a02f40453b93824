// Package config loads runtime configuration from environment variables.
// Credentials are process-wide read-only state loaded once at startup;
// no runtime rotation is handled.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.
type Config struct {
	Port string

	BookeoBaseURL   string
	BookeoAPIKey    string
	BookeoSecretKey string

	PayuBaseURL     string
	PayuMerchantKey string
	PayuAuthHeader  string
	// PayuWebhookSalt enables webhook hash verification when set.
	PayuWebhookSalt string

	HomeCurrency string
}

// Load reads configuration from the environment, consulting a local
// .env file when present. Missing required variables are fatal.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getenv("APP_PORT", "8080"),
		BookeoBaseURL:   getenv("BOOKEO_BASE_URL", "https://api.bookeo.com/v2"),
		BookeoAPIKey:    must("BOOKEO_API_KEY"),
		BookeoSecretKey: must("BOOKEO_SECRET_KEY"),
		PayuBaseURL:     must("PAYU_BASE_URL"),
		PayuMerchantKey: must("PAYU_MERCHANT_KEY"),
		PayuAuthHeader:  must("PAYU_AUTH_HEADER"),
		PayuWebhookSalt: os.Getenv("PAYU_WEBHOOK_SALT"),
		HomeCurrency:    getenv("HOME_CURRENCY", "INR"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
