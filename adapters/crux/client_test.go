package crux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/crux-go/ports/pricing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:    srv.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

func TestClient_ErgPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coingecko/erg_price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 1.52, "market_cap": 120000000, "volume_24h": 4500000}`))
	})

	p, err := c.ErgPrice(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1.52, p.Price)
	assert.Equal(t, float64(120000000), p.MarketCap)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}, func(cfg *Config) { cfg.APIKey = "secret" })

	_, err := c.ErgPrice(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"price": 1.0}`))
	})

	p, err := c.ErgPrice(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Price)
	assert.Equal(t, int64(3), attempts.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := c.ErgPrice(t.Context())
	require.ErrorIs(t, err, ErrServer)
	assert.Equal(t, int64(3), attempts.Load(), "initial attempt plus two retries")
}

func TestClient_NotFoundIsFinal(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "no such token", http.StatusNotFound)
	})

	_, err := c.AssetInfo(t.Context(), "deadbeef")
	require.ErrorIs(t, err, pricing.ErrNotFound)
	assert.Equal(t, int64(1), attempts.Load(), "404 must not be retried")
}

func TestClient_AuthErrorIsFinal(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := c.ErgPrice(t.Context())
	require.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int64(1), attempts.Load())
}

func TestClient_RateLimitedThenOK(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"price": 2.0}`))
	})

	p, err := c.ErgPrice(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Price)
	assert.Equal(t, int64(2), attempts.Load())
}

func TestClient_DecodeErrorIsFinal(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = w.Write([]byte(`<html>definitely not json</html>`))
	})

	_, err := c.ErgPrice(t.Context())
	require.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, int64(1), attempts.Load())
}

func TestClient_ErgHistoryFillsWindow(t *testing.T) {
	var query atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"prices": [{"timestamp": 1, "price": 1.1}]}`))
	})

	h, err := c.ErgHistory(t.Context(), pricing.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, h.Prices, 1)

	q := query.Load().(url.Values)
	assert.Equal(t, "30", q.Get("countback"))
	assert.Equal(t, "1D", q.Get("resolution"))
	assert.NotEmpty(t, q.Get("from"))
	assert.NotEmpty(t, q.Get("to"))
}

func TestClient_ErgHistoryKeepsExplicitWindow(t *testing.T) {
	var query atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"prices": []}`))
	})

	_, err := c.ErgHistory(t.Context(), pricing.HistoryQuery{
		From:       1000,
		To:         2000,
		Countback:  5,
		Resolution: "1H",
	})
	require.NoError(t, err)

	q := query.Load().(url.Values)
	assert.Equal(t, "1000", q.Get("from"))
	assert.Equal(t, "2000", q.Get("to"))
	assert.Equal(t, "5", q.Get("countback"))
	assert.Equal(t, "1H", q.Get("resolution"))
}

func TestClient_SpectrumPriceParams(t *testing.T) {
	var query atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spectrum/price", r.URL.Path)
		query.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"token_id": "abc", "price": 0.05}`))
	})

	before := time.Now().UnixMilli()
	p, err := c.SpectrumPrice(t.Context(), pricing.SpectrumQuery{TokenID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 0.05, p.Price)

	q := query.Load().(url.Values)
	assert.Equal(t, "abc", q.Get("token_id"))

	tp, err := strconv.ParseInt(q.Get("time_point"), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tp, before, "zero time point defaults to now")
}

func TestClient_SpectrumPriceStatsParams(t *testing.T) {
	var query atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spectrum/price_stats", r.URL.Path)
		query.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"token_id": "abc", "min": 0.04, "max": 0.06, "average": 0.05}`))
	})

	s, err := c.SpectrumPriceStats(t.Context(), pricing.SpectrumStatsQuery{
		TokenID:   "abc",
		TimePoint: 1700000000000,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.05, s.Average)

	q := query.Load().(url.Values)
	assert.Equal(t, "abc", q.Get("token_id"))
	assert.Equal(t, "1700000000000", q.Get("time_point"))
	assert.Equal(t, "86400", q.Get("time_window"), "zero window defaults to 24h")
}

func TestClient_SearchTokensDecodesList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trading_view/search", r.URL.Path)
		assert.Equal(t, "erg", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`[{"symbol": "ERG", "full_name": "Ergo", "description": "Ergo coin"}]`))
	})

	matches, err := c.SearchTokens(t.Context(), pricing.SearchQuery{Query: "erg"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "ERG", matches[0].Symbol)
}

func TestClient_TimeoutIsRetried(t *testing.T) {
	var attempts atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(100 * time.Millisecond)
	}, func(cfg *Config) {
		cfg.Timeout = 10 * time.Millisecond
		cfg.MaxRetries = 1
	})

	_, err := c.ErgPrice(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(2), attempts.Load(), "timeouts are transient and retried once here")
}

func TestClient_BackoffHonorsRetryAfter(t *testing.T) {
	c := New(Config{RetryDelay: time.Second})

	err := &Error{Kind: ErrRateLimited, Status: 429, RetryAfter: 3 * time.Second}
	assert.Equal(t, 3*time.Second, c.backoff(1, err))
}

func TestClient_BackoffGrowsExponentially(t *testing.T) {
	c := New(Config{RetryDelay: 10 * time.Millisecond})
	plain := &Error{Kind: ErrServer, Status: 502}

	for attempt, base := range map[int]time.Duration{
		1: 10 * time.Millisecond,
		2: 20 * time.Millisecond,
		3: 40 * time.Millisecond,
	} {
		d := c.backoff(attempt, plain)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/10, "jitter stays within a tenth of the base")
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&Error{Kind: ErrServer, Status: http.StatusBadGateway}))
	assert.True(t, retryable(&Error{Kind: ErrServer, Status: http.StatusServiceUnavailable}))
	assert.True(t, retryable(&Error{Kind: ErrRateLimited, Status: http.StatusTooManyRequests}))
	assert.False(t, retryable(&Error{Kind: ErrAuth, Status: http.StatusUnauthorized}))
	assert.False(t, retryable(&Error{Kind: ErrRequest, Status: http.StatusBadRequest}))
	assert.False(t, retryable(&Error{Kind: ErrServer, Status: http.StatusInternalServerError}))
	assert.False(t, retryable(context.Canceled))
}
