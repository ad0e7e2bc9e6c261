package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBDSN           string
	Environment     string
	LogLevel        string
	LogFormat       string
	CookieSecure    bool
	SeedDemo        bool
	RateLimitPerMin int
	BodyLimitBytes  int
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	env := getenv("ENVIRONMENT", "development")
	secure := env == "production"
	if !secure {
		secure = getenvBool("COOKIE_SECURE", false)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DBDSN:           getenv("DB_DSN", "courseshop.db"), // sqlite file in project root
		Environment:     env,
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		CookieSecure:    secure,
		SeedDemo:        getenvBool("SEED_DEMO", true),
		RateLimitPerMin: getenvInt("RATE_LIMIT_PER_MIN", 60),
		BodyLimitBytes:  getenvInt("BODY_LIMIT_BYTES", 1<<20),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
