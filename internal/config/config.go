package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	DBURL       string
	StoreDriver string

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLHours  int
	AdminEmail          string
	AdminPassword       string
	AdminName           string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RateLimitAuthPerMin int

	OTelEnabled  bool
	OTelEndpoint string

	// EnforceOwnership restricts course and lesson mutation (and enrollment
	// changes) to the owner or an ADMIN.
	EnforceOwnership bool

	AIBaseURL         string
	AIAPIKey          string
	AIModel           string
	AITimeoutSeconds  int
	AICacheTTLSeconds int
	AICacheMaxEntries int
}

func Load() Config {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 15),
		JWTRefreshTTLHours:  getEnvInt("JWT_REFRESH_TTL_HOURS", 24*7),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		AdminName:           getEnv("ADMIN_NAME", "Administrator"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RateLimitAuthPerMin: getEnvInt("RATE_LIMIT_AUTH_PER_MIN", 20),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		EnforceOwnership: getEnvBool("ENFORCE_OWNERSHIP", true),

		AIBaseURL:         getEnv("AI_BASE_URL", "https://api.x.ai/v1"),
		AIAPIKey:          getEnv("AI_API_KEY", ""),
		AIModel:           getEnv("AI_MODEL", "grok-beta"),
		AITimeoutSeconds:  getEnvInt("AI_TIMEOUT_SECONDS", 20),
		AICacheTTLSeconds: getEnvInt("AI_CACHE_TTL_SECONDS", 300),
		AICacheMaxEntries: getEnvInt("AI_CACHE_MAX_ENTRIES", 1000),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLHours) * time.Hour
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "learnhub")
	pass := getEnv("DB_PASSWORD", "learnhub")
	name := getEnv("DB_NAME", "learnhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("config: invalid integer, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("config: invalid boolean, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
