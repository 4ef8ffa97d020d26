package cache

import "time"

// stats holds the store's counters. Every field is guarded by the store
// mutex; monotonic counters survive Clear, live totals do not.
type stats struct {
	hits        int64
	misses      int64
	evictions   int64
	expirations int64
	sizeBytes   int64
	startedAt   time.Time
}

// StatsSnapshot is a point-in-time view of the store, taken under the store
// lock so counters and entry count are mutually consistent.
type StatsSnapshot struct {
	Hits           int64     `json:"hits"`
	Misses         int64     `json:"misses"`
	HitRate        float64   `json:"hit_rate"`
	Entries        int       `json:"entries"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	Evictions      int64     `json:"evictions"`
	Expirations    int64     `json:"expirations"`
	AvgTTLSeconds  float64   `json:"avg_ttl_seconds"`
	StartedAt      time.Time `json:"started_at"`
}

// hitRate is the percentage of counted lookups that hit, 0 when nothing has
// been looked up yet.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
