package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings loaded from the environment.
type Config struct {
	Port              int
	APIBaseURL        string
	FileBaseURL       string
	RedisURL          string
	APITimeout        time.Duration
	SessionCookieName string
	CookieSecure      bool
	NotifyDuration    time.Duration
	FilterDebounce    time.Duration
	UploadMaxBytes    int64
	RateLimitPublic   RateLimitConfig
	RateLimitLogin    RateLimitConfig
	Monitoring        MonitoringConfig
}

// MonitoringConfig controls the upstream probe and the idle-state sweep.
type MonitoringConfig struct {
	ProbeURL        string
	Interval        time.Duration
	RequestTimeout  time.Duration
	LatencyWarning  time.Duration
	IdleAfter       time.Duration
	AlertWebhookURL string
	AlertSource     string
}

// RateLimitConfig describes a simple token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads the environment (and an optional .env file) and applies defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT invalid")
	}
	cfg.Port = port

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("API_BASE_URL", "")), "/")
	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL required")
	}

	cfg.FileBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("FILE_BASE_URL", "")), "/")
	if cfg.FileBaseURL == "" {
		return nil, errors.New("FILE_BASE_URL required")
	}

	// empty means sessions live in process memory
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.APITimeout, err = parseDurationEnv("API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.SessionCookieName = strings.TrimSpace(getEnv("SESSION_COOKIE_NAME", "console_session"))
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "console_session"
	}

	cfg.CookieSecure, err = parseBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}

	cfg.NotifyDuration, err = parseDurationEnv("NOTIFY_DURATION", 3*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.FilterDebounce, err = parseDurationEnv("FILTER_DEBOUNCE", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	maxBytes, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil || maxBytes <= 0 {
		return nil, errors.New("UPLOAD_MAX_BYTES invalid")
	}
	cfg.UploadMaxBytes = maxBytes

	cfg.Monitoring.ProbeURL = strings.TrimSpace(getEnv("PROBE_URL", cfg.APIBaseURL))
	if cfg.Monitoring.Interval, err = parseDurationEnv("PROBE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Monitoring.RequestTimeout, err = parseDurationEnv("PROBE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Monitoring.LatencyWarning, err = parseDurationEnv("PROBE_LATENCY_WARNING", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.Monitoring.IdleAfter, err = parseDurationEnv("SESSION_IDLE_SWEEP", 24*time.Hour); err != nil {
		return nil, err
	}
	cfg.Monitoring.AlertWebhookURL = strings.TrimSpace(getEnv("ALERT_WEBHOOK_URL", ""))
	cfg.Monitoring.AlertSource = getEnv("ALERT_SOURCE", "sigma-console")

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitLogin = RateLimitConfig{RequestsPerSecond: 1, Burst: 5}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " invalid")
	}
	return dur, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.New(key + " invalid")
	}
	return b, nil
}
