package cache

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Store is a bounded, concurrency-safe TTL cache with LRU eviction.
//
// A single mutex serializes every operation. Nothing under the lock blocks
// or performs I/O, so the coarse lock keeps all operations totally ordered
// per key without measurable contention at the intended scale. Expired
// entries are removed lazily on Get/Exists and actively by the reaper.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	touched map[string]time.Time // last-touch stamps, eviction ranking only

	cfg   config
	stats stats

	reaperMu   sync.Mutex
	reaperStop chan struct{}
	reaperDone chan struct{}
}

// New creates a Store. Defaults: 1000 entries, 5m default TTL, 5m cleanup
// interval, wall clock, discarded logs, no-op metrics.
func New(opts ...Option) *Store {
	cfg := config{
		maxSize:         defaultMaxSize,
		defaultTTL:      defaultTTL,
		cleanupInterval: defaultCleanupInterval,
		clock:           realClock{},
		log:             slog.New(slog.DiscardHandler),
		metrics:         NewNopMetrics(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxSize < 1 {
		cfg.maxSize = defaultMaxSize
	}

	return &Store{
		entries: make(map[string]*Entry),
		touched: make(map[string]time.Time),
		cfg:     cfg,
		stats:   stats{startedAt: cfg.clock.Now()},
	}
}

// Set stores value under key. When a novel key would exceed the size bound,
// exactly one least-recently-used entry is evicted first, so the store never
// transiently exceeds its bound. Overwriting an existing key never evicts.
func (s *Store) Set(key string, value any, opts ...SetOption) {
	so := SetOptions{TTL: s.cfg.defaultTTL}
	for _, o := range opts {
		o(&so)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok && len(s.entries) >= s.cfg.maxSize {
		s.evictLRU()
	}

	now := s.cfg.clock.Now()
	e := newEntry(value, now, so.TTL)
	if old, ok := s.entries[key]; ok {
		s.stats.sizeBytes -= old.SizeBytes
	}
	s.entries[key] = e
	s.touched[key] = now
	s.stats.sizeBytes += e.SizeBytes
	s.report()

	s.cfg.log.Debug("cache set",
		slog.String("key", key),
		slog.Duration("ttl", so.TTL),
		slog.Int64("size_bytes", e.SizeBytes))
}

// Get returns the value stored under key. A present-but-expired entry is
// removed on the spot and counted as both a miss and an expiration; the
// expiry error never reaches the caller.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.miss(key)
		return nil, false
	}

	now := s.cfg.clock.Now()
	if e.Expired(now) {
		s.expire(key, e)
		s.miss(key)
		return nil, false
	}

	v, err := e.Access(s.cfg.clock.Now())
	if err != nil {
		// Expired between the check above and the access. Same outcome as
		// expired-on-lookup.
		s.expire(key, e)
		s.miss(key)
		return nil, false
	}

	s.touched[key] = now
	s.stats.hits++
	s.cfg.metrics.Hit()
	s.cfg.log.Debug("cache hit", slog.String("key", key))
	return v, true
}

// Delete removes key if present and reports whether anything was removed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(key, e)
	s.cfg.log.Debug("cache delete", slog.String("key", key))
	return true
}

// Exists reports whether key holds a fresh entry. It removes an expired
// entry like Get does, but touches neither the hit/miss counters nor the
// LRU order.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if e.Expired(s.cfg.clock.Now()) {
		s.expire(key, e)
		return false
	}
	return true
}

// Clear removes every entry and returns how many were removed. Entry count
// and size drop to zero; hit, miss, eviction and expiration counters
// survive.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]*Entry)
	s.touched = make(map[string]time.Time)
	s.stats.sizeBytes = 0
	s.report()
	s.cfg.log.Debug("cache cleared", slog.Int("removed", n))
	return n
}

// ClearPrefix removes every key under the given namespace prefix and returns
// the count. An empty prefix clears the whole store.
func (s *Store) ClearPrefix(prefix string) int {
	if prefix == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pfx := prefix + ":"
	n := 0
	for k, e := range s.entries {
		if strings.HasPrefix(k, pfx) {
			s.removeLocked(k, e)
			n++
		}
	}
	s.cfg.log.Debug("cache prefix cleared",
		slog.String("prefix", prefix),
		slog.Int("removed", n))
	return n
}

// CleanupExpired removes every expired entry and returns the count. The
// reaper calls this on its interval; callers may also invoke it directly.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.clock.Now()
	n := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			s.expire(k, e)
			n++
		}
	}
	return n
}

// Keys returns a snapshot of all keys. Expired entries are not pruned here.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// KeysWithPrefix returns a snapshot of the keys under a namespace prefix.
func (s *Store) KeysWithPrefix(prefix string) []string {
	if prefix == "" {
		return s.Keys()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pfx := prefix + ":"
	var keys []string
	for k := range s.entries {
		if strings.HasPrefix(k, pfx) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the current entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a consistent snapshot: counters, entry count, total size,
// hit rate and the mean remaining TTL across stored entries.
func (s *Store) Stats() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.clock.Now()
	var ttlSum time.Duration
	for _, e := range s.entries {
		ttlSum += e.TimeToExpire(now)
	}
	avgTTL := 0.0
	if len(s.entries) > 0 {
		avgTTL = ttlSum.Seconds() / float64(len(s.entries))
	}

	return StatsSnapshot{
		Hits:           s.stats.hits,
		Misses:         s.stats.misses,
		HitRate:        hitRate(s.stats.hits, s.stats.misses),
		Entries:        len(s.entries),
		TotalSizeBytes: s.stats.sizeBytes,
		Evictions:      s.stats.evictions,
		Expirations:    s.stats.expirations,
		AvgTTLSeconds:  avgTTL,
		StartedAt:      s.stats.startedAt,
	}
}

// evictLRU removes the entry with the oldest last-touch stamp. Caller holds
// the lock.
func (s *Store) evictLRU() {
	var victim string
	var oldest time.Time
	found := false
	for k, t := range s.touched {
		if !found || t.Before(oldest) {
			victim, oldest = k, t
			found = true
		}
	}
	if !found {
		return
	}

	if e, ok := s.entries[victim]; ok {
		s.removeLocked(victim, e)
		s.stats.evictions++
		s.cfg.metrics.Eviction()
		s.cfg.log.Debug("cache evicted", slog.String("key", victim))
	}
}

// expire removes an expired entry and counts the expiration. Caller holds
// the lock.
func (s *Store) expire(key string, e *Entry) {
	s.removeLocked(key, e)
	s.stats.expirations++
	s.cfg.metrics.Expiration()
	s.cfg.log.Debug("cache expired", slog.String("key", key))
}

// miss counts a lookup miss. Caller holds the lock.
func (s *Store) miss(key string) {
	s.stats.misses++
	s.cfg.metrics.Miss()
	s.cfg.log.Debug("cache miss", slog.String("key", key))
}

// removeLocked deletes key and adjusts the size total. Caller holds the
// lock.
func (s *Store) removeLocked(key string, e *Entry) {
	delete(s.entries, key)
	delete(s.touched, key)
	s.stats.sizeBytes -= e.SizeBytes
	s.report()
}

// report pushes the current totals to the metrics sink. Caller holds the
// lock.
func (s *Store) report() {
	s.cfg.metrics.Entries(len(s.entries))
	s.cfg.metrics.Size(s.stats.sizeBytes)
}
