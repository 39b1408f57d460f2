package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	DBPath      string
	DatabaseURL string
	SeedPath    string

	// google | geodesic
	DistanceBackend  string
	GoogleMapsAPIKey string
	// none | sqlite | postgres | redis
	DistanceCache       string
	DistanceCacheMaxAge time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// sqlite | mongo
	StoreBackend  string
	MongoURI      string
	MongoDatabase string

	CostQueryTimeout       time.Duration
	CostCacheTTL           time.Duration
	PlannerParallelism     int
	AnnealingSeed          int64
	ArrivalThresholdMeters float64
	// Idle sessions are dropped after SessionTTL.
	SessionTTL time.Duration
}

// Load reads the configuration from the environment and validates the
// combinations that need extra settings.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            Get("PORT", "8080"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigins:     getCSVEnv("CORS_ALLOWED_ORIGINS"),

		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedPath:    Get("SEED_PATH", "data/seeds/bookmarks.json"),

		DistanceBackend:     strings.ToLower(Get("DISTANCE_BACKEND", "google")),
		GoogleMapsAPIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
		DistanceCache:       strings.ToLower(Get("DISTANCE_CACHE", "sqlite")),
		DistanceCacheMaxAge: getDurationEnv("DISTANCE_CACHE_MAX_AGE", 7*24*time.Hour),

		RedisAddr:     Get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		StoreBackend:  strings.ToLower(Get("STORE_BACKEND", "sqlite")),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: Get("MONGO_DATABASE", "trip_planner"),

		CostQueryTimeout:       getDurationEnv("COST_QUERY_TIMEOUT", 10*time.Second),
		CostCacheTTL:           getDurationEnv("COST_CACHE_TTL", 30*time.Minute),
		PlannerParallelism:     getIntEnv("PLANNER_PARALLELISM", 8),
		AnnealingSeed:          getInt64Env("ANNEALING_SEED", 0),
		ArrivalThresholdMeters: getFloatEnv("ARRIVAL_THRESHOLD_METERS", 75),
		SessionTTL:             getDurationEnv("SESSION_TTL", 12*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DistanceBackend {
	case "google":
		if strings.TrimSpace(c.GoogleMapsAPIKey) == "" {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY is required when DISTANCE_BACKEND=google")
		}
	case "geodesic":
	default:
		return fmt.Errorf("unknown DISTANCE_BACKEND %q", c.DistanceBackend)
	}

	switch c.DistanceCache {
	case "none", "sqlite", "redis":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when DISTANCE_CACHE=postgres")
		}
	default:
		return fmt.Errorf("unknown DISTANCE_CACHE %q", c.DistanceCache)
	}

	switch c.StoreBackend {
	case "sqlite":
	case "mongo":
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.PlannerParallelism < 1 {
		return fmt.Errorf("PLANNER_PARALLELISM must be at least 1")
	}
	if c.ArrivalThresholdMeters <= 0 {
		return fmt.Errorf("ARRIVAL_THRESHOLD_METERS must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// Get returns the value of key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
