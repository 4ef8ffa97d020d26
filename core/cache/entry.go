package cache

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrEntryExpired is returned by [Entry.Access] when the entry's TTL has
// elapsed. The store converts it into an ordinary miss; only callers holding
// an Entry directly ever observe it.
var ErrEntryExpired = errors.New("cache: entry expired")

// defaultSizeBytes is charged for values that cannot be measured.
const defaultSizeBytes = 100

// Entry is a cached value together with its temporal and access metadata.
// The store creates entries on Set and owns them afterwards; Value is never
// mutated. SizeBytes is estimated once at construction and frozen.
type Entry struct {
	Value        any
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AccessCount  int64
	LastAccessed time.Time
	SizeBytes    int64
}

func newEntry(value any, now time.Time, ttl time.Duration) *Entry {
	// A negative TTL clamps to zero so ExpiresAt never precedes CreatedAt;
	// the entry is simply born expired.
	if ttl < 0 {
		ttl = 0
	}
	return &Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		SizeBytes: estimateSize(value),
	}
}

// Expired reports whether the TTL has elapsed at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Valid reports whether the entry is still fresh at the given time.
func (e *Entry) Valid(now time.Time) bool {
	return !e.Expired(now)
}

// TimeToExpire returns the remaining lifetime at the given time, never
// negative.
func (e *Entry) TimeToExpire(now time.Time) time.Duration {
	if d := e.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Access returns the value and records the read. Accessing an expired entry
// fails with [ErrEntryExpired] and records nothing.
func (e *Entry) Access(now time.Time) (any, error) {
	if e.Expired(now) {
		return nil, ErrEntryExpired
	}
	e.AccessCount++
	e.LastAccessed = now
	return e.Value, nil
}

// estimateSize approximates a value's footprint for stats only, never for
// correctness. It must not fail: values that cannot be serialized are
// charged defaultSizeBytes.
func estimateSize(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		return int64(len(t))
	case []byte:
		return int64(len(t))
	case bool:
		return 1
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return 8
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return defaultSizeBytes
		}
		return int64(len(b))
	}
}
