package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL = "https://openrouter.ai/api/v1"
	DefaultModel  = "deepseek/deepseek-r1:free"
)

type Config struct {
	// Server
	Port  string
	Env   string
	Debug bool

	// OpenRouter
	OpenRouterAPIKey  string
	OpenRouterAPIURL  string
	OpenRouterModel   string
	OpenRouterAppName string
	OpenRouterAppURL  string
	OpenRouterTimeout time.Duration

	// Compare fan-out width
	CompareConcurrency int

	// CORS
	CORSOrigins []string

	// Rate limiting (per client, upstream routes only)
	RateLimitPerMinute int
	RedisURL           string

	// Honour X-Forwarded-For / X-Real-IP only behind a known reverse proxy
	TrustedProxy bool

	// Gateway auth
	JWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnvOrDefault("APP_ENV", getEnvOrDefault("FLASK_ENV", "production"))

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "5000"),
		Env:                env,
		Debug:              getEnvAsBoolOrDefault("DEBUG", env == "development"),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterAPIURL:   getEnvOrDefault("OPENROUTER_API_URL", DefaultAPIURL),
		OpenRouterModel:    getEnvOrDefault("OPENROUTER_MODEL", DefaultModel),
		OpenRouterAppName:  getEnvOrDefault("OPENROUTER_APP_NAME", "practical-ai-index"),
		OpenRouterAppURL:   getEnvOrDefault("OPENROUTER_APP_URL", "https://github.com/dpshade/practical-ai-index"),
		OpenRouterTimeout:  getEnvAsDurationOrDefault("OPENROUTER_TIMEOUT", 30*time.Second),
		CompareConcurrency: getEnvAsIntOrDefault("COMPARE_CONCURRENCY", 3),
		CORSOrigins:        splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		TrustedProxy:       getEnvAsBoolOrDefault("TRUSTED_PROXY", false),
		JWTSecret:          getEnvOrDefault("GATEWAY_JWT_SECRET", ""),
	}

	return cfg
}

// OpenRouterConfigured reports whether a credential was supplied.
func (c *Config) OpenRouterConfigured() bool {
	return c.OpenRouterAPIKey != ""
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
