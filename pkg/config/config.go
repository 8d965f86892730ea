package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	LogLevel    string

	// Owner locks. RedisURL empty means in-process locks.
	RedisURL string
	LockTTL  time.Duration
	LockWait time.Duration

	// Supabase. Identity verification and avatar uploads are disabled
	// when SupabaseURL or SupabaseServiceKey is empty.
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	AvatarBucket       string
	MaxAvatarBytes     int64

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string
	CORSOrigins        []string
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:      getEnv("APP_ENV", "local"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RedisURL: getEnv("REDIS_URL", ""),
		LockTTL:  getEnvDuration("LOCK_TTL", 10*time.Second),
		LockWait: getEnvDuration("LOCK_WAIT", 5*time.Second),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),
		AvatarBucket:       getEnv("AVATAR_BUCKET", "avatars"),
		MaxAvatarBytes:     int64(getEnvInt("MAX_AVATAR_BYTES", 5<<20)),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedEmails:      getEnvList("ALLOWED_EMAILS", nil),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SupabaseEnabled reports whether the Supabase adapters can be built.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
