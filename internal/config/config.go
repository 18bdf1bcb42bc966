package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/database"
)

type Config struct {
	HTTPAddr string

	DBDriver string // postgres|sqlite
	DB       database.Config
	DBDSN    string // sqlite file

	RedisAddr string // empty disables the cache

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		DBDriver: envOr("DB_DRIVER", "postgres"),
		DB: database.Config{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", "5432"),
			User:     envOr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   envOr("DB_NAME", "lms"),
		},
		DBDSN:           envOr("DB_DSN", "lms.db"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        durationOr("TOKEN_TTL", 24*time.Hour),
		CORSOrigins:     csvOr("CORS_ORIGINS", "http://localhost:3000"),
		ShutdownTimeout: durationOr("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationOr(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
