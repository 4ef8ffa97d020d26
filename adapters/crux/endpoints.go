package crux

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/codewandler/crux-go/ports/pricing"
)

var _ pricing.Source = (*Client)(nil)

// ErgPrice fetches the current ERG quote.
func (c *Client) ErgPrice(ctx context.Context) (*pricing.ErgPrice, error) {
	var out pricing.ErgPrice
	if err := c.get(ctx, "/coingecko/erg_price", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ErgHistory fetches historical ERG price points. Zero window bounds are
// filled in: To defaults to now, From to Countback points back at the given
// resolution.
func (c *Client) ErgHistory(ctx context.Context, q pricing.HistoryQuery) (*pricing.PriceHistory, error) {
	if q.Countback <= 0 {
		q.Countback = 30
	}
	if q.Resolution == "" {
		q.Resolution = "1D"
	}
	if q.To == 0 {
		q.To = time.Now().Unix()
	}
	if q.From == 0 {
		q.From = q.To - int64(q.Countback)*resolutionSeconds(q.Resolution)
	}

	v := url.Values{}
	v.Set("from", strconv.FormatInt(q.From, 10))
	v.Set("to", strconv.FormatInt(q.To, 10))
	v.Set("countback", strconv.Itoa(q.Countback))
	v.Set("resolution", q.Resolution)

	var out pricing.PriceHistory
	if err := c.get(ctx, "/coingecko/erg_history", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssetInfo fetches descriptive data for an asset.
func (c *Client) AssetInfo(ctx context.Context, tokenID string) (*pricing.AssetInfo, error) {
	var out pricing.AssetInfo
	if err := c.get(ctx, "/crux/asset_info/"+url.PathEscape(tokenID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenInfo fetches extended token data including market figures.
func (c *Client) TokenInfo(ctx context.Context, tokenID string) (*pricing.TokenInfo, error) {
	var out pricing.TokenInfo
	if err := c.get(ctx, "/crux/token_info/"+url.PathEscape(tokenID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CirculatingSupply fetches a token's supply figures.
func (c *Client) CirculatingSupply(ctx context.Context, tokenID string) (*pricing.CirculatingSupply, error) {
	var out pricing.CirculatingSupply
	if err := c.get(ctx, "/crux/circulating_supply/"+url.PathEscape(tokenID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TxStats fetches statistics for one transaction.
func (c *Client) TxStats(ctx context.Context, txID string) (*pricing.TxStats, error) {
	var out pricing.TxStats
	if err := c.get(ctx, "/crux/tx_stats/"+url.PathEscape(txID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SpectrumPrice fetches a DEX spot price. A zero TimePoint means now.
func (c *Client) SpectrumPrice(ctx context.Context, q pricing.SpectrumQuery) (*pricing.SpectrumPrice, error) {
	if q.TimePoint == 0 {
		q.TimePoint = time.Now().UnixMilli()
	}

	v := url.Values{}
	v.Set("token_id", q.TokenID)
	v.Set("time_point", strconv.FormatInt(q.TimePoint, 10))

	var out pricing.SpectrumPrice
	if err := c.get(ctx, "/spectrum/price", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SpectrumPriceStats fetches DEX price statistics over a window. A zero
// TimePoint means now; a zero TimeWindow means the last 24 hours.
func (c *Client) SpectrumPriceStats(ctx context.Context, q pricing.SpectrumStatsQuery) (*pricing.SpectrumPriceStats, error) {
	if q.TimePoint == 0 {
		q.TimePoint = time.Now().UnixMilli()
	}
	if q.TimeWindow == 0 {
		q.TimeWindow = 86400
	}

	v := url.Values{}
	v.Set("token_id", q.TokenID)
	v.Set("time_point", strconv.FormatInt(q.TimePoint, 10))
	v.Set("time_window", strconv.FormatInt(q.TimeWindow, 10))

	var out pricing.SpectrumPriceStats
	if err := c.get(ctx, "/spectrum/price_stats", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CandleHistory fetches OHLCV bars for a symbol.
func (c *Client) CandleHistory(ctx context.Context, q pricing.CandleQuery) (*pricing.CandleHistory, error) {
	v := url.Values{}
	v.Set("symbol", q.Symbol)
	v.Set("from", strconv.FormatInt(q.From, 10))
	v.Set("to", strconv.FormatInt(q.To, 10))
	v.Set("resolution", q.Resolution)
	v.Set("countback", strconv.Itoa(q.Countback))

	var out pricing.CandleHistory
	if err := c.get(ctx, "/trading_view/history", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchTokens matches trading symbols by free text. The upstream returns a
// bare list.
func (c *Client) SearchTokens(ctx context.Context, q pricing.SearchQuery) ([]pricing.SymbolMatch, error) {
	v := url.Values{}
	v.Set("query", q.Query)

	var out []pricing.SymbolMatch
	if err := c.get(ctx, "/trading_view/search", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ServiceInfo describes the upstream service.
func (c *Client) ServiceInfo(ctx context.Context) (*pricing.ServiceInfo, error) {
	var out pricing.ServiceInfo
	if err := c.get(ctx, "/crux/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// resolutionSeconds maps a chart resolution to its sampling period.
func resolutionSeconds(res string) int64 {
	switch res {
	case "1D":
		return 86400
	case "1H":
		return 3600
	case "1M":
		return 60
	default:
		return 86400
	}
}
