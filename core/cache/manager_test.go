package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenID = "9a06d9e545a41fd51eeffc5e20d818073bf820c635e2a9d922269913e0de369d"

func newTestManager(clk Clock) (*Manager, *Store) {
	s := newTestStore(clk)
	return NewManager(s, DefaultTTLs()), s
}

func TestManager_CategoryRoundtrip(t *testing.T) {
	clk := newFakeClock()
	m, s := newTestManager(clk)

	m.CachePrice(testTokenID, 1.23)
	m.CacheMetadata(testTokenID, "Ergo")
	m.CacheHistory(testTokenID+":1d", []int{1, 2, 3})
	m.CacheStatic("service_info", "v1")

	v, ok := m.Price(testTokenID)
	require.True(t, ok)
	assert.Equal(t, 1.23, v)

	v, ok = m.Metadata(testTokenID)
	require.True(t, ok)
	assert.Equal(t, "Ergo", v)

	v, ok = m.History(testTokenID + ":1d")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, v)

	v, ok = m.Static("service_info")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	// Entries live under their category namespaces in the shared store.
	assert.True(t, s.Exists(Key(PrefixPrice, testTokenID)))
	assert.True(t, s.Exists(Key(PrefixMetadata, testTokenID)))
}

func TestManager_CategoryTTLs(t *testing.T) {
	clk := newFakeClock()
	m, _ := newTestManager(clk)

	m.CachePrice(testTokenID, 1.23)
	m.CacheMetadata(testTokenID, "Ergo")

	// Past the price TTL but well within the metadata TTL.
	clk.Advance(31 * time.Second)

	_, ok := m.Price(testTokenID)
	assert.False(t, ok, "price entries expire after 30s")

	_, ok = m.Metadata(testTokenID)
	assert.True(t, ok, "metadata entries live longer than price entries")
}

func TestManager_Invalidate(t *testing.T) {
	clk := newFakeClock()
	m, s := newTestManager(clk)

	m.CachePrice(testTokenID, 1.23)
	m.CacheMetadata(testTokenID, "Ergo")
	m.CacheHistory(testTokenID+":1d:30", []int{1})
	m.CacheHistory("othertoken:1d:30", []int{2})

	removed := m.Invalidate(testTokenID)
	require.Equal(t, 3, removed)

	_, ok := m.Price(testTokenID)
	assert.False(t, ok)
	_, ok = m.Metadata(testTokenID)
	assert.False(t, ok)
	assert.False(t, s.Exists(Key(PrefixHistory, testTokenID+":1d:30")))

	// Unrelated history entries survive.
	assert.True(t, s.Exists(Key(PrefixHistory, "othertoken:1d:30")))
}

func TestManager_InvalidateSubstringMatch(t *testing.T) {
	clk := newFakeClock()
	m, s := newTestManager(clk)

	// The history scan matches by substring, so a composite key embedding
	// the id anywhere is removed. Known limitation, asserted here so a
	// change in matching semantics is deliberate.
	m.CacheHistory("pair:"+testTokenID+":usd", []int{1})

	removed := m.Invalidate(testTokenID)
	require.Equal(t, 1, removed)
	assert.False(t, s.Exists(Key(PrefixHistory, "pair:"+testTokenID+":usd")))
}

func TestManager_InvalidateUnknownID(t *testing.T) {
	clk := newFakeClock()
	m, _ := newTestManager(clk)

	require.Equal(t, 0, m.Invalidate("unknown"))
}

func TestManager_ClearCategory(t *testing.T) {
	clk := newFakeClock()
	m, _ := newTestManager(clk)

	m.CachePrice("a", 1)
	m.CachePrice("b", 2)
	m.CacheMetadata("a", "x")

	n, err := m.ClearCategory(PrefixPrice)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, ok := m.Metadata("a")
	assert.True(t, ok, "clearing one category must not touch another")

	_, err = m.ClearCategory("bogus")
	require.Error(t, err)
}

func TestManager_ClearAll(t *testing.T) {
	clk := newFakeClock()
	m, s := newTestManager(clk)

	m.CachePrice("a", 1)
	m.CacheStatic("b", 2)

	require.Equal(t, 2, m.ClearAll())
	assert.Equal(t, 0, s.Len())
}

func TestManager_TTLFor(t *testing.T) {
	m := NewManager(New(), TTLs{Price: time.Second})

	d, ok := m.TTLFor(PrefixPrice)
	require.True(t, ok)
	assert.Equal(t, time.Second, d)

	// Unset categories fall back to defaults.
	d, ok = m.TTLFor(PrefixStatic)
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, d)

	_, ok = m.TTLFor("bogus")
	assert.False(t, ok)
}

func TestManager_Stats(t *testing.T) {
	clk := newFakeClock()
	m, _ := newTestManager(clk)

	m.CachePrice("a", 1)
	_, _ = m.Price("a")
	_, _ = m.Price("missing")

	st := m.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 1, st.Entries)
}
