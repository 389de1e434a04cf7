package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server and the harvester read from the
// environment.
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	LogLevel  string

	// Admin credentials for the token endpoint. AdminPassword may be a
	// bcrypt hash or, for development, a plain string. Login is disabled
	// while the password is empty.
	AdminUser     string
	AdminPassword string

	SessionTTL time.Duration

	// Optional color scale overrides as hex strings. Empty means the
	// built-in green-to-red scale.
	LowColor     string
	HighColor    string
	NeutralColor string

	KrogerBaseURL      string
	KrogerClientID     string
	KrogerClientSecret string

	// Harvest behavior. StoreLimit and StopAfterRequests are development
	// throttles; zero disables them. RequestsPerDay is the API quota the
	// request log is checked against.
	HarvestTimezone   string
	StoreLimit        int
	StopAfterRequests int
	RequestsPerDay    int
	DryRun            bool
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/prices.db"),
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute,

		LowColor:     os.Getenv("LOW_COLOR"),
		HighColor:    os.Getenv("HIGH_COLOR"),
		NeutralColor: os.Getenv("NEUTRAL_COLOR"),

		KrogerBaseURL:      getEnv("KROGER_BASE_URL", "https://api.kroger.com/v1"),
		KrogerClientID:     os.Getenv("KROGER_CLIENT_ID"),
		KrogerClientSecret: os.Getenv("KROGER_CLIENT_SECRET"),

		HarvestTimezone:   getEnv("HARVEST_TZ", "America/New_York"),
		StoreLimit:        getEnvInt("STORE_LIMIT", 0),
		StopAfterRequests: getEnvInt("STOP_AFTER_REQUESTS", 0),
		RequestsPerDay:    getEnvInt("REQUESTS_PER_DAY", 10000),
		DryRun:            getEnvBool("DRY_RUN", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
