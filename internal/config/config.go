package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Environment         string // ENV: production, development, etc.
	Port                string
	LogLevel            string
	StoreBackend        string // STORE_BACKEND: mongo or memory
	MongoURI            string
	PostgresURI         string
	RedisURI            string
	EncryptionKey       string
	Timezone            string
	FrontendURL         string
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	TrustProxy          bool
	RateLimitPerMinute  int
	ShutdownTimeout     time.Duration
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	return &Config{
		Environment:         env,
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/mindjournal")),
		PostgresURI:         getEnv("POSTGRES_URI", "postgres://localhost:5432/mindjournal?sslmode=disable"),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		EncryptionKey:       getEnv("ENCRYPTION_KEY", ""),
		Timezone:            getEnv("TIMEZONE", "UTC"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:      allowedOrigins,
		TrustProxy:          getBool("TRUST_PROXY", false),
		RateLimitPerMinute:  getInt("RATE_LIMIT_PER_MINUTE", 120),
		ShutdownTimeout:     getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
	}
}

// Validate reports every setting that would stop the server from working.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo backend"))
		}
		if c.RedisURI == "" {
			errs = append(errs, errors.New("REDIS_URI is required for the mongo backend"))
		}
		if c.PostgresURI == "" {
			errs = append(errs, errors.New("POSTGRES_URI is required for the mongo backend"))
		}
	case BackendMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORE_BACKEND=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.StoreBackend))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.IsProduction() && c.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required in production"))
	}
	return errors.Join(errs...)
}

// Location returns the configured default timezone, or UTC if it is invalid.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CloudinaryEnabled reports whether export archives can be uploaded.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !containsOrigin(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
