// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits before any
// work starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the aggregator service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	ApifyToken   string // Apify API token for actor runs
	ResendAPIKey string // Resend API key for outbound email
	CronSecret   string // shared-secret bearer credential for trigger endpoints

	AppURL    string // base URL for unsubscribe / dashboard links in emails
	EmailFrom string // From header for digest emails

	ResultLimit   int           // max results requested per (provider, term) run
	PollInterval  time.Duration // actor run status poll interval
	MaxWait       time.Duration // max wait for an actor run to finish
	RecencyWindow time.Duration // lookback window suppressing repeat runs
	DigestLimit   int           // max postings per digest email
	Workers       int           // scrape worker pool size

	ScrapeIntervalHours int // 0 disables the internal scrape cron
	DigestIntervalHours int // 0 disables the internal digest cron

	LogLevel  string
	PrettyLog bool
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getenv("AGGREGATOR_PORT", "8083"),
		AppURL:    getenv("APP_URL", "http://localhost:3000"),
		EmailFrom: getenv("EMAIL_FROM", "JobFlow <no-reply@jobs.jobflow.dev>"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: getenv("PRETTY_LOG", "") == "true",
	}

	for _, req := range []struct {
		name string
		dst  *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"REDIS_URL", &cfg.RedisURL},
		{"APIFY_API_TOKEN", &cfg.ApifyToken},
		{"RESEND_API_KEY", &cfg.ResendAPIKey},
		{"CRON_SECRET", &cfg.CronSecret},
	} {
		v := os.Getenv(req.name)
		if v == "" {
			return nil, fmt.Errorf("%s is required", req.name)
		}
		*req.dst = v
	}

	var err error
	if cfg.ResultLimit, err = getenvInt("RESULT_LIMIT", 25); err != nil {
		return nil, err
	}
	if cfg.DigestLimit, err = getenvInt("DIGEST_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getenvInt("SCRAPE_WORKERS", 3); err != nil {
		return nil, err
	}
	if cfg.ScrapeIntervalHours, err = getenvInt("SCRAPE_INTERVAL_HOURS", 0); err != nil {
		return nil, err
	}
	if cfg.DigestIntervalHours, err = getenvInt("DIGEST_INTERVAL_HOURS", 0); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getenvDuration("RUN_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxWait, err = getenvDuration("RUN_MAX_WAIT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RecencyWindow, err = getenvDuration("RECENCY_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("SCRAPE_WORKERS must be at least 1, got %d", cfg.Workers)
	}

	return cfg, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getenvInt(name string, fallback int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, s)
	}
	return v, nil
}

func getenvDuration(name string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (e.g. %q), got %q", name, "30s", s)
	}
	return v, nil
}
