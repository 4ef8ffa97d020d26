// Package config loads the process configuration from the environment.
//
// Every knob has a documented default, so an empty environment yields a
// working configuration. Duration variables accept either a Go duration
// string ("45s", "2m") or a bare integer, read as seconds.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type (
	// Settings is the full process configuration.
	Settings struct {
		API       APISettings
		Cache     CacheSettings
		RateLimit RateLimitSettings
		Log       LogSettings
		Server    ServerSettings
	}

	// APISettings configures the upstream HTTP client.
	APISettings struct {
		BaseURL    string        // CRUX_API_BASE_URL
		Key        string        // CRUX_API_KEY, optional
		Timeout    time.Duration // CRUX_API_TIMEOUT
		MaxRetries int           // CRUX_API_MAX_RETRIES
		RetryDelay time.Duration // CRUX_API_RETRY_DELAY
	}

	// CacheSettings configures the store and the per-category TTLs.
	CacheSettings struct {
		TTLPrice        time.Duration // CACHE_TTL_PRICE
		TTLMetadata     time.Duration // CACHE_TTL_METADATA
		TTLHistory      time.Duration // CACHE_TTL_HISTORY
		TTLStatic       time.Duration // CACHE_TTL_STATIC
		MaxSize         int           // CACHE_MAX_SIZE
		CleanupInterval time.Duration // CACHE_CLEANUP_INTERVAL
	}

	// RateLimitSettings configures the client-side token bucket.
	RateLimitSettings struct {
		RPM   int // RATE_LIMIT_RPM
		Burst int // RATE_LIMIT_BURST
	}

	LogSettings struct {
		Level  string // LOG_LEVEL: debug, info, warn, error
		Format string // LOG_FORMAT: text or json
	}

	ServerSettings struct {
		Name        string // SERVER_NAME
		MetricsAddr string // METRICS_ADDR, empty disables the listener
	}
)

// Defaults returns the documented default settings.
func Defaults() Settings {
	return Settings{
		API: APISettings{
			BaseURL:    "https://api.cruxfinance.io",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		Cache: CacheSettings{
			TTLPrice:        30 * time.Second,
			TTLMetadata:     5 * time.Minute,
			TTLHistory:      time.Hour,
			TTLStatic:       24 * time.Hour,
			MaxSize:         1000,
			CleanupInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitSettings{
			RPM:   100,
			Burst: 10,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Server: ServerSettings{
			Name: "crux-go",
		},
	}
}

// FromEnv loads settings from the environment on top of [Defaults] and
// validates the result. Errors name the offending variable.
func FromEnv() (Settings, error) {
	s := Defaults()
	var err error

	s.API.BaseURL = getEnv("CRUX_API_BASE_URL", s.API.BaseURL)
	s.API.Key = getEnv("CRUX_API_KEY", s.API.Key)
	if s.API.Timeout, err = getEnvDuration("CRUX_API_TIMEOUT", s.API.Timeout); err != nil {
		return s, err
	}
	if s.API.MaxRetries, err = getEnvInt("CRUX_API_MAX_RETRIES", s.API.MaxRetries); err != nil {
		return s, err
	}
	if s.API.RetryDelay, err = getEnvDuration("CRUX_API_RETRY_DELAY", s.API.RetryDelay); err != nil {
		return s, err
	}

	if s.Cache.TTLPrice, err = getEnvDuration("CACHE_TTL_PRICE", s.Cache.TTLPrice); err != nil {
		return s, err
	}
	if s.Cache.TTLMetadata, err = getEnvDuration("CACHE_TTL_METADATA", s.Cache.TTLMetadata); err != nil {
		return s, err
	}
	if s.Cache.TTLHistory, err = getEnvDuration("CACHE_TTL_HISTORY", s.Cache.TTLHistory); err != nil {
		return s, err
	}
	if s.Cache.TTLStatic, err = getEnvDuration("CACHE_TTL_STATIC", s.Cache.TTLStatic); err != nil {
		return s, err
	}
	if s.Cache.MaxSize, err = getEnvInt("CACHE_MAX_SIZE", s.Cache.MaxSize); err != nil {
		return s, err
	}
	if s.Cache.CleanupInterval, err = getEnvDuration("CACHE_CLEANUP_INTERVAL", s.Cache.CleanupInterval); err != nil {
		return s, err
	}

	if s.RateLimit.RPM, err = getEnvInt("RATE_LIMIT_RPM", s.RateLimit.RPM); err != nil {
		return s, err
	}
	if s.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", s.RateLimit.Burst); err != nil {
		return s, err
	}

	s.Log.Level = getEnv("LOG_LEVEL", s.Log.Level)
	s.Log.Format = getEnv("LOG_FORMAT", s.Log.Format)
	s.Server.Name = getEnv("SERVER_NAME", s.Server.Name)
	s.Server.MetricsAddr = getEnv("METRICS_ADDR", s.Server.MetricsAddr)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks every setting a broken environment could have produced.
func (s Settings) Validate() error {
	if s.API.BaseURL == "" {
		return errors.New("config: CRUX_API_BASE_URL must not be empty")
	}
	if s.API.Timeout <= 0 {
		return errors.New("config: CRUX_API_TIMEOUT must be positive")
	}
	if s.API.MaxRetries < 0 {
		return errors.New("config: CRUX_API_MAX_RETRIES must not be negative")
	}
	if s.API.RetryDelay <= 0 {
		return errors.New("config: CRUX_API_RETRY_DELAY must be positive")
	}

	ttls := []struct {
		name string
		d    time.Duration
	}{
		{"CACHE_TTL_PRICE", s.Cache.TTLPrice},
		{"CACHE_TTL_METADATA", s.Cache.TTLMetadata},
		{"CACHE_TTL_HISTORY", s.Cache.TTLHistory},
		{"CACHE_TTL_STATIC", s.Cache.TTLStatic},
		{"CACHE_CLEANUP_INTERVAL", s.Cache.CleanupInterval},
	}
	for _, ttl := range ttls {
		if ttl.d <= 0 {
			return fmt.Errorf("config: %s must be positive", ttl.name)
		}
	}

	if s.Cache.MaxSize <= 0 {
		return errors.New("config: CACHE_MAX_SIZE must be positive")
	}
	if s.RateLimit.RPM <= 0 {
		return errors.New("config: RATE_LIMIT_RPM must be positive")
	}
	if s.RateLimit.Burst <= 0 {
		return errors.New("config: RATE_LIMIT_BURST must be positive")
	}

	if _, err := s.Log.SlogLevel(); err != nil {
		return err
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", s.Log.Format)
	}

	if s.Server.Name == "" {
		return errors.New("config: SERVER_NAME must not be empty")
	}
	return nil
}

// SlogLevel parses the configured log level.
func (s LogSettings) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.Level)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", s.Level, err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("config: invalid %s %q: want a duration or integer seconds", key, v)
}
