package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codewandler/crux-go/core/cache"
	"github.com/codewandler/crux-go/core/cached"
	"github.com/codewandler/crux-go/ports/pricing"
)

// PricingDeps carries the collaborators the pricing tool set is built from.
type PricingDeps struct {
	Source  pricing.Source
	Store   *cache.Store
	Manager *cache.Manager
	Log     *slog.Logger
}

// Argument shapes for the pricing tools. Field names match the published
// input schemas.
type (
	emptyArgs struct{}

	historyArgs struct {
		Countback     int    `json:"countback"`
		Resolution    string `json:"resolution"`
		FromTimestamp int64  `json:"from_timestamp"`
		ToTimestamp   int64  `json:"to_timestamp"`
	}

	tokenArgs struct {
		TokenID string `json:"token_id"`
	}

	txArgs struct {
		TxID string `json:"tx_id"`
	}

	spectrumArgs struct {
		TokenID   string `json:"token_id"`
		TimePoint int64  `json:"time_point"`
	}

	spectrumStatsArgs struct {
		TokenID    string `json:"token_id"`
		TimePoint  int64  `json:"time_point"`
		TimeWindow int64  `json:"time_window"`
	}

	candleArgs struct {
		Symbol        string `json:"symbol"`
		FromTimestamp int64  `json:"from_timestamp"`
		ToTimestamp   int64  `json:"to_timestamp"`
		Resolution    string `json:"resolution"`
		Countback     int    `json:"countback"`
	}

	searchArgs struct {
		Query string `json:"query"`
	}
)

// searchResult wraps the bare upstream match list.
type searchResult struct {
	Results []pricing.SymbolMatch `json:"results"`
}

// invalidateResult reports what an invalidation removed.
type invalidateResult struct {
	TokenID string `json:"token_id"`
	Removed int    `json:"removed"`
}

func decodeArgs[A any](raw json.RawMessage) (A, error) {
	var args A
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

// RegisterPricing builds the pricing tool set on top of deps and registers
// it on r. Fetch tools wrap their source call in a cache-aside function
// keyed per data category; volatile operations (transaction stats, symbol
// search) and the cache management tools call through directly.
func RegisterPricing(r *Registry, deps PricingDeps) error {
	if deps.Source == nil {
		return errors.New("pricing tools: source is required")
	}
	if deps.Store == nil {
		return errors.New("pricing tools: store is required")
	}
	if deps.Manager == nil {
		return errors.New("pricing tools: manager is required")
	}

	log := deps.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ttlPrice, _ := deps.Manager.TTLFor(cache.PrefixPrice)
	ttlMetadata, _ := deps.Manager.TTLFor(cache.PrefixMetadata)
	ttlHistory, _ := deps.Manager.TTLFor(cache.PrefixHistory)
	ttlStatic, _ := deps.Manager.TTLFor(cache.PrefixStatic)

	ergPrice := cached.Wrap(deps.Store, "get_erg_price",
		func(ctx context.Context, _ emptyArgs) (*pricing.ErgPrice, error) {
			return deps.Source.ErgPrice(ctx)
		},
		cached.WithPrefix[emptyArgs](cache.PrefixPrice),
		cached.WithTTL[emptyArgs](ttlPrice),
		cached.WithLogger[emptyArgs](log),
	)

	ergHistory := cached.Wrap(deps.Store, "get_erg_price_history", deps.Source.ErgHistory,
		cached.WithPrefix[pricing.HistoryQuery](cache.PrefixHistory),
		cached.WithTTL[pricing.HistoryQuery](ttlHistory),
		cached.WithLogger[pricing.HistoryQuery](log),
	)

	spectrumPrice := cached.Wrap(deps.Store, "get_spectrum_price", deps.Source.SpectrumPrice,
		cached.WithPrefix[pricing.SpectrumQuery](cache.PrefixPrice),
		cached.WithTTL[pricing.SpectrumQuery](ttlPrice),
		cached.WithLogger[pricing.SpectrumQuery](log),
	)

	spectrumStats := cached.Wrap(deps.Store, "get_spectrum_price_stats", deps.Source.SpectrumPriceStats,
		cached.WithPrefix[pricing.SpectrumStatsQuery](cache.PrefixPrice),
		cached.WithTTL[pricing.SpectrumStatsQuery](ttlPrice),
		cached.WithLogger[pricing.SpectrumStatsQuery](log),
	)

	assetInfo := cached.Wrap(deps.Store, "get_asset_info", deps.Source.AssetInfo,
		cached.WithPrefix[string](cache.PrefixMetadata),
		cached.WithTTL[string](ttlMetadata),
		cached.WithLogger[string](log),
	)

	tokenInfo := cached.Wrap(deps.Store, "get_token_info", deps.Source.TokenInfo,
		cached.WithPrefix[string](cache.PrefixMetadata),
		cached.WithTTL[string](ttlMetadata),
		cached.WithLogger[string](log),
	)

	supply := cached.Wrap(deps.Store, "get_circulating_supply", deps.Source.CirculatingSupply,
		cached.WithPrefix[string](cache.PrefixMetadata),
		cached.WithTTL[string](ttlMetadata),
		cached.WithLogger[string](log),
	)

	candles := cached.Wrap(deps.Store, "get_candle_history", deps.Source.CandleHistory,
		cached.WithPrefix[pricing.CandleQuery](cache.PrefixHistory),
		cached.WithTTL[pricing.CandleQuery](ttlHistory),
		cached.WithLogger[pricing.CandleQuery](log),
	)

	serviceInfo := cached.Wrap(deps.Store, "get_service_info",
		func(ctx context.Context, _ emptyArgs) (*pricing.ServiceInfo, error) {
			return deps.Source.ServiceInfo(ctx)
		},
		cached.WithPrefix[emptyArgs](cache.PrefixStatic),
		cached.WithTTL[emptyArgs](ttlStatic),
		cached.WithLogger[emptyArgs](log),
	)

	set := []struct {
		def Definition
		h   Handler
	}{
		{
			def: Definition{
				Name:        "get_erg_price",
				Description: "Get the current ERG price. Returns real-time price data including USD price, market cap, 24h volume and 24h change.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {}, "required": []}`),
			},
			h: func(ctx context.Context, _ json.RawMessage) (any, error) {
				return ergPrice(ctx, emptyArgs{})
			},
		},
		{
			def: Definition{
				Name:        "get_erg_price_history",
				Description: "Get historical ERG price data. Daily resolution (1D) is the most reliable; hourly and minute resolutions may have limited availability. Parameters are optional with sensible defaults.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"countback": {"type": "integer", "description": "Number of data points to retrieve (default: 30)"},
						"resolution": {"type": "string", "description": "Chart resolution: 1D (daily, recommended), 1H (hourly) or 1M (minute). Default: 1D"},
						"from_timestamp": {"type": "integer", "description": "Start timestamp in seconds (computed from countback when omitted)"},
						"to_timestamp": {"type": "integer", "description": "End timestamp in seconds (defaults to the current time)"}
					},
					"required": []
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[historyArgs](raw)
				if err != nil {
					return nil, err
				}
				return ergHistory(ctx, pricing.HistoryQuery{
					From:       args.FromTimestamp,
					To:         args.ToTimestamp,
					Countback:  args.Countback,
					Resolution: args.Resolution,
				})
			},
		},
		{
			def: Definition{
				Name:        "get_spectrum_price",
				Description: "Get the current price of a token from the Spectrum DEX. The time point is optional and defaults to the current time.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"token_id": {"type": "string", "description": "Token ID to get the price for. Use the full 64-character token ID."},
						"time_point": {"type": "integer", "description": "Unix timestamp in milliseconds (defaults to the current time)"}
					},
					"required": ["token_id"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[spectrumArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TokenID == "" {
					return nil, errors.New("token_id is required")
				}
				return spectrumPrice(ctx, pricing.SpectrumQuery{
					TokenID:   args.TokenID,
					TimePoint: args.TimePoint,
				})
			},
		},
		{
			def: Definition{
				Name:        "get_spectrum_price_stats",
				Description: "Get price statistics (min, max, average) for a token from the Spectrum DEX over a time window.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"token_id": {"type": "string", "description": "Token ID to get statistics for. Use the full 64-character token ID."},
						"time_point": {"type": "integer", "description": "Unix timestamp in milliseconds (defaults to the current time)"},
						"time_window": {"type": "integer", "description": "Window length in seconds (default: 86400 = 24 hours)", "default": 86400}
					},
					"required": ["token_id"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[spectrumStatsArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TokenID == "" {
					return nil, errors.New("token_id is required")
				}
				return spectrumStats(ctx, pricing.SpectrumStatsQuery{
					TokenID:    args.TokenID,
					TimePoint:  args.TimePoint,
					TimeWindow: args.TimeWindow,
				})
			},
		},
		{
			def: Definition{
				Name:        "get_asset_info",
				Description: "Get detailed asset information for a token ID.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"token_id": {"type": "string", "description": "Token ID to look up"}
					},
					"required": ["token_id"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[tokenArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TokenID == "" {
					return nil, errors.New("token_id is required")
				}
				return assetInfo(ctx, args.TokenID)
			},
		},
		{
			def: Definition{
				Name:        "get_token_info",
				Description: "Get token metadata and market details for a token ID.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"token_id": {"type": "string", "description": "Token ID to look up"}
					},
					"required": ["token_id"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[tokenArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TokenID == "" {
					return nil, errors.New("token_id is required")
				}
				return tokenInfo(ctx, args.TokenID)
			},
		},
		{
			def: Definition{
				Name:        "get_circulating_supply",
				Description: "Get the circulating supply of a token.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"token_id": {"type": "string", "description": "Token ID to look up"}
					},
					"required": ["token_id"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[tokenArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TokenID == "" {
					return nil, errors.New("token_id is required")
				}
				return supply(ctx, args.TokenID)
			},
		},
		{
			def: Definition{
				Name:        "get_transaction_stats",
				Description: "Get statistics for a transaction by ID. Always fetched live.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"tx_id": {"type": "string", "description": "Transaction ID to look up"}
					},
					"required": ["tx_id"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[txArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TxID == "" {
					return nil, errors.New("tx_id is required")
				}
				return deps.Source.TxStats(ctx, args.TxID)
			},
		},
		{
			def: Definition{
				Name:        "get_candle_history",
				Description: "Get historical OHLCV trading data for a symbol.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"symbol": {"type": "string", "description": "Trading symbol to get history for"},
						"from_timestamp": {"type": "integer", "description": "Start timestamp (Unix seconds)"},
						"to_timestamp": {"type": "integer", "description": "End timestamp (Unix seconds)"},
						"resolution": {"type": "string", "description": "Chart resolution like 1D or 1H"},
						"countback": {"type": "integer", "description": "Number of bars to retrieve"}
					},
					"required": ["symbol", "from_timestamp", "to_timestamp", "resolution", "countback"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[candleArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.Symbol == "" {
					return nil, errors.New("symbol is required")
				}
				if args.Resolution == "" {
					return nil, errors.New("resolution is required")
				}
				if args.FromTimestamp <= 0 || args.ToTimestamp <= 0 {
					return nil, errors.New("from_timestamp and to_timestamp are required")
				}
				if args.Countback <= 0 {
					return nil, errors.New("countback must be positive")
				}
				return candles(ctx, pricing.CandleQuery{
					Symbol:     args.Symbol,
					From:       args.FromTimestamp,
					To:         args.ToTimestamp,
					Resolution: args.Resolution,
					Countback:  args.Countback,
				})
			},
		},
		{
			def: Definition{
				Name:        "search_tokens",
				Description: "Search for tokens by name, symbol or other identifying text.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"query": {"type": "string", "description": "Search text"}
					},
					"required": ["query"]
				}`),
			},
			h: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[searchArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.Query == "" {
					return nil, errors.New("query is required")
				}
				matches, err := deps.Source.SearchTokens(ctx, pricing.SearchQuery{Query: args.Query})
				if err != nil {
					return nil, err
				}
				return searchResult{Results: matches}, nil
			},
		},
		{
			def: Definition{
				Name:        "get_service_info",
				Description: "Get descriptive information about the upstream pricing service.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {}, "required": []}`),
			},
			h: func(ctx context.Context, _ json.RawMessage) (any, error) {
				return serviceInfo(ctx, emptyArgs{})
			},
		},
		{
			def: Definition{
				Name:        "get_cache_stats",
				Description: "Get cache statistics: hits, misses, hit rate, entry count, estimated size, evictions and expirations.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {}, "required": []}`),
			},
			h: func(_ context.Context, _ json.RawMessage) (any, error) {
				return deps.Manager.Stats(), nil
			},
		},
		{
			def: Definition{
				Name:        "invalidate_token_data",
				Description: "Remove all cached data for a token: its price and metadata entries plus any historical entries that reference it.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"token_id": {"type": "string", "description": "Token ID to invalidate"}
					},
					"required": ["token_id"]
				}`),
			},
			h: func(_ context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[tokenArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.TokenID == "" {
					return nil, errors.New("token_id is required")
				}
				removed := deps.Manager.Invalidate(args.TokenID)
				return invalidateResult{TokenID: args.TokenID, Removed: removed}, nil
			},
		},
	}

	for _, t := range set {
		if err := r.Register(t.def, t.h); err != nil {
			return err
		}
	}
	return nil
}
