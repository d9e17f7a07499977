// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
//
// Supabase and runner settings keep the env names the original deployment
// used, including the alternate spellings, so an existing .env keeps working.
type Config struct {
	DataDir string // Base directory for local state (comment cache, export logo)

	SupabaseURL string // Supabase project URL (PostgREST gateway)
	SupabaseKey string // service-role key preferred, anon key accepted

	RunnerURL    string // external blending solver / ETL service
	RunnerSecret string // sent as x-runner-secret

	OpenAIKey          string
	OpenAICommentModel string

	WebPass     string // dashboard gate password; empty disables the gate
	ETLSchedule string // optional cron expression for the scheduled ETL load

	LogLevel string
	Port     int
	DevMode  bool
}

// Load reads configuration from environment variables (.env file honored).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("BLENDBOARD_DATA_DIR", "./data")
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		port = v
	}

	cfg := &Config{
		DataDir: absDir,

		SupabaseURL: firstEnv("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"),
		SupabaseKey: firstEnv("SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_KEY", "SUPABASE_ANON_KEY"),

		RunnerURL:    os.Getenv("RUNNER_URL"),
		RunnerSecret: os.Getenv("RUNNER_SECRET"),

		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAICommentModel: getEnv("OPENAI_COMMENT_MODEL", "gpt-5-mini"),

		WebPass:     firstEnv("WEB_PASS", "NEXT_PUBLIC_WEB_PASS"),
		ETLSchedule: os.Getenv("ETL_SCHEDULE"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     port,
		DevMode:  os.Getenv("DEV_MODE") == "true",
	}

	return cfg, nil
}

// Validate checks that the settings required to serve data are present.
// Runner and OpenAI settings stay optional: their endpoints fail with a
// clear error instead of the whole service refusing to start.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" || c.SupabaseKey == "" {
		return fmt.Errorf("missing Supabase envs (SUPABASE_URL/NEXT_PUBLIC_SUPABASE_URL and a service or anon key)")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// firstEnv returns the first non-empty value among the given variable names.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
