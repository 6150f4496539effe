package app

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env       string
	HTTPAddr  string
	CORSAllow []string

	// Join handshake deadline: a connection that has not joined a room
	// within this window is dropped.
	JoinTimeout time.Duration

	RedisAddr string // host:port, empty disables the cross-instance bus
	RedisDB   int

	// Upstream collaborator services.
	ReviewURL   string // AI code review backend
	RunURL      string // Piston-style code execution service
	ScaffoldURL string // API scaffold generator
}

func LoadConfig() Config {
	cfg := Config{
		Env:         getEnv("APP_ENV", "dev"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		ReviewURL:   getEnv("REVIEW_URL", "http://localhost:3000/ai"),
		RunURL:      getEnv("RUN_URL", "https://emkc.org/api/v2/piston"),
		ScaffoldURL: getEnv("SCAFFOLD_URL", "http://localhost:3000"),
	}
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.JoinTimeout = getEnvDuration("JOIN_TIMEOUT", 10*time.Second)
	// CORS allowlist
	allow := getEnv("CORS_ALLOW", "http://localhost:5173")
	cfg.CORSAllow = splitCSV(allow)
	log.Printf("config: %+v\n", cfg)
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		_, _ = fmt.Sscanf(v, "%d", &i)
		if i > 0 {
			return i
		}
	}
	return def
}

// getEnvDuration parses a duration env var with a fallback
func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
