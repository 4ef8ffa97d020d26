package cache

import (
	"log/slog"
	"time"
)

const (
	defaultMaxSize         = 1000
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 5 * time.Minute
)

type config struct {
	maxSize         int
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	clock           Clock
	log             *slog.Logger
	metrics         Metrics
}

// Option configures a Store at construction time.
type Option func(*config)

// WithMaxSize bounds the entry count. At capacity, inserting a novel key
// evicts the least recently used entry.
func WithMaxSize(n int) Option {
	return func(c *config) {
		c.maxSize = n
	}
}

// WithDefaultTTL sets the lifetime applied when Set is called without
// [WithTTL].
func WithDefaultTTL(d time.Duration) Option {
	return func(c *config) {
		c.defaultTTL = d
	}
}

// WithCleanupInterval sets the reaper's sweep period.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) {
		c.cleanupInterval = d
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clk Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

// WithLogger sets the event logger. By default events are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// SetOptions carries per-call Set parameters.
type SetOptions struct {
	TTL time.Duration
}

// SetOption adjusts a single Set call.
type SetOption func(*SetOptions)

// WithTTL overrides the store's default TTL for one Set call.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *SetOptions) {
		o.TTL = ttl
	}
}
