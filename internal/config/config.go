package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Env  string
	Port int

	DBURL       string
	StoreDriver string // postgres | memory
	RunMigrate  bool

	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	ApplyRateLimit   int
	ApplyRateWindow  time.Duration
	RateLimitBackend string // memory | redis

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRatePerMin int
	CORSOrigins    []string
	RequestTimeout time.Duration
	SeedSkills     bool
	SkillsCacheTTL time.Duration

	OTELEnabled  bool
	OTELEndpoint string

	WorkerID           string
	WorkerPollInterval time.Duration
	WorkerConcurrency  int
	WorkerHealthPort   int
	WorkerStaleLock    time.Duration
}

// Load reads a .env file when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	hostname, _ := os.Hostname()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		RunMigrate:  getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret: getEnv("JWT_SECRET", devJWTSecret),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour,
		JWTIssuer: getEnv("JWT_ISSUER", "quickhire"),

		ApplyRateLimit:   getEnvInt("APPLY_RATE_LIMIT", 10),
		ApplyRateWindow:  getEnvDuration("APPLY_RATE_WINDOW", time.Hour),
		RateLimitBackend: strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthRatePerMin: getEnvInt("AUTH_RATE_PER_MIN", 20),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 3*time.Second),
		SeedSkills:     getEnvBool("SEED_SKILLS", true),
		SkillsCacheTTL: getEnvDuration("SKILLS_CACHE_TTL", 30*time.Second),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),

		WorkerID:           getEnv("WORKER_ID", "worker-"+hostname),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", time.Second),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 8081),
		WorkerStaleLock:    getEnvDuration("WORKER_STALE_LOCK", 5*time.Minute),
	}
}

// Validate rejects settings the process cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Env != "dev" && c.Env != "test" && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set outside dev"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is empty"))
	}
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of postgres, memory", c.StoreDriver))
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND %q is not one of memory, redis", c.RateLimitBackend))
	}
	if c.ApplyRateLimit <= 0 {
		errs = append(errs, errors.New("APPLY_RATE_LIMIT must be positive"))
	}
	if c.ApplyRateWindow <= 0 {
		errs = append(errs, errors.New("APPLY_RATE_WINDOW must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "quickhire")
	pass := getEnv("DB_PASSWORD", "quickhire")
	name := getEnv("DB_NAME", "quickhire")
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
			slog.Warn("invalid int env, using default", "key", key, "value", v)
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
			slog.Warn("invalid bool env, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "1h") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	slog.Warn("invalid duration env, using default", "key", key, "value", v)
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
