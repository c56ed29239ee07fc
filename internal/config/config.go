package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string
	// APIKey is the fallback shared secret for delete routes when no
	// security.yml or CUSTOMERDESK_SECURITY_APIKEY is present.
	APIKey string

	OTLPEndpoint string

	Seed SeedConfig
}

// SeedConfig controls the fake data generated at startup.
type SeedConfig struct {
	Enabled         bool
	Customers       int
	MaxInvoices     int
	MaxPhoneNumbers int
	// RandomSeed makes generation reproducible; 0 picks a random seed.
	RandomSeed int64
}

const DefaultAPIKey = "change-me"

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:      getenv("APP_SERVICE", "customerdesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		APIKey:       strings.TrimSpace(getenv("API_KEY", DefaultAPIKey)),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Seed: SeedConfig{
			Enabled:         getenvBool("SEED_ENABLED", true),
			Customers:       getenvInt("SEED_CUSTOMERS", 10),
			MaxInvoices:     getenvInt("SEED_MAX_INVOICES", 5),
			MaxPhoneNumbers: getenvInt("SEED_MAX_PHONE_NUMBERS", 3),
			RandomSeed:      getenvInt64("SEED_RANDOM_SEED", 0),
		},
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
