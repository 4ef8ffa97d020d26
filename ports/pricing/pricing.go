// Package pricing defines the typed records served by the upstream pricing
// API and the [Source] contract that fetch implementations satisfy. The tool
// layer consumes a Source; adapters/crux provides the HTTP implementation.
package pricing

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested entity does not exist upstream.
// Implementations wrap it so callers can test with errors.Is.
var ErrNotFound = errors.New("pricing: not found")

// HistoryQuery selects a window of historical price points. Zero From/To
// are filled by the implementation: To defaults to now, From to
// To - Countback points at the given resolution.
type HistoryQuery struct {
	From       int64  `json:"from,omitempty"`
	To         int64  `json:"to,omitempty"`
	Countback  int    `json:"countback"`
	Resolution string `json:"resolution"`
}

// SpectrumQuery selects a spot price from the Spectrum DEX.
type SpectrumQuery struct {
	TokenID   string `json:"token_id"`
	TimePoint int64  `json:"time_point,omitempty"`
}

// SpectrumStatsQuery selects a price-statistics window from the Spectrum
// DEX. TimeWindow is the window length in seconds ending at TimePoint;
// implementations default it to 24 hours.
type SpectrumStatsQuery struct {
	TokenID    string `json:"token_id"`
	TimePoint  int64  `json:"time_point,omitempty"`
	TimeWindow int64  `json:"time_window,omitempty"`
}

// CandleQuery selects OHLCV bars for a trading symbol.
type CandleQuery struct {
	Symbol     string `json:"symbol"`
	From       int64  `json:"from"`
	To         int64  `json:"to"`
	Resolution string `json:"resolution"`
	Countback  int    `json:"countback"`
}

// SearchQuery matches trading symbols by free text.
type SearchQuery struct {
	Query string `json:"query"`
}

// Source is the fetch contract the caching layer wraps: every method either
// returns a typed value or fails. Implementations must be safe for
// concurrent use.
type Source interface {
	// ErgPrice returns the current ERG quote.
	ErgPrice(ctx context.Context) (*ErgPrice, error)
	// ErgHistory returns historical ERG price points.
	ErgHistory(ctx context.Context, q HistoryQuery) (*PriceHistory, error)
	// AssetInfo returns descriptive data for an asset.
	AssetInfo(ctx context.Context, tokenID string) (*AssetInfo, error)
	// TokenInfo returns extended token data including market figures.
	TokenInfo(ctx context.Context, tokenID string) (*TokenInfo, error)
	// CirculatingSupply returns the token's supply figures.
	CirculatingSupply(ctx context.Context, tokenID string) (*CirculatingSupply, error)
	// TxStats returns statistics for one transaction.
	TxStats(ctx context.Context, txID string) (*TxStats, error)
	// SpectrumPrice returns a DEX spot price.
	SpectrumPrice(ctx context.Context, q SpectrumQuery) (*SpectrumPrice, error)
	// SpectrumPriceStats returns DEX price statistics over a window.
	SpectrumPriceStats(ctx context.Context, q SpectrumStatsQuery) (*SpectrumPriceStats, error)
	// CandleHistory returns OHLCV bars for a symbol.
	CandleHistory(ctx context.Context, q CandleQuery) (*CandleHistory, error)
	// SearchTokens matches trading symbols by free text.
	SearchTokens(ctx context.Context, q SearchQuery) ([]SymbolMatch, error)
	// ServiceInfo describes the upstream service.
	ServiceInfo(ctx context.Context) (*ServiceInfo, error)
}
