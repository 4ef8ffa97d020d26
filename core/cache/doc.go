// Package cache provides a bounded in-memory TTL cache with LRU eviction,
// hit/miss/eviction/expiration accounting, and a category façade for pricing
// data.
//
// # Store
//
// [Store] is the core: a concurrency-safe key-value map where every entry
// carries a TTL and the entry count is bounded. Inserting a novel key at
// capacity evicts the least recently used entry first. Expired entries are
// removed lazily on Get/Exists and proactively by the background reaper.
//
//	store := cache.New(
//	    cache.WithMaxSize(1000),
//	    cache.WithDefaultTTL(5*time.Minute),
//	)
//	store.StartReaper()
//	defer store.StopReaper()
//
//	store.Set("price:erg", quote, cache.WithTTL(30*time.Second))
//	if v, ok := store.Get("price:erg"); ok {
//	    // fresh value
//	}
//
// Misses, expired lookups and a full store are ordinary outcomes, reported
// through return values and counters, never through errors.
//
// # Keys
//
// Keys are flat strings, namespaced by convention as "prefix:base" via
// [Key]. [HashKey] derives a fixed-width content-addressed base key from
// arbitrary argument data, which keeps heterogeneous call signatures
// keyable. Namespaces enable prefix-scoped clearing.
//
// # Manager
//
// [Manager] fixes a prefix and a TTL per data category (price, metadata,
// history, static) and adds entity invalidation across categories.
//
//	mgr := cache.NewManager(store, cache.DefaultTTLs())
//	mgr.CachePrice(tokenID, quote)
//	mgr.Invalidate(tokenID)
//
// # Stats
//
// [Store.Stats] returns a consistent snapshot: monotonic counters, current
// entry count and size, hit rate as a percentage, and the mean remaining
// TTL. Clear resets the live totals but keeps the monotonic counters.
//
// # Observability
//
// Stores accept a *slog.Logger and a [Metrics] sink via options; both
// default to no-ops. The adapters/prometheus package provides a Prometheus
// implementation of [Metrics].
package cache
