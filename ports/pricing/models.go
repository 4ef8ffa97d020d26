package pricing

import "time"

// ErgPrice is the current ERG quote in USD.
type ErgPrice struct {
	Price                  float64   `json:"price"`
	MarketCap              float64   `json:"market_cap,omitempty"`
	Volume24h              float64   `json:"volume_24h,omitempty"`
	PriceChange24h         float64   `json:"price_change_24h,omitempty"`
	PriceChangePercent24h  float64   `json:"price_change_percentage_24h,omitempty"`
	LastUpdated            time.Time `json:"last_updated,omitzero"`
}

// PricePoint is a single point in a price series.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
}

// PriceHistory is a windowed price series.
type PriceHistory struct {
	Prices       []PricePoint `json:"prices"`
	MarketCaps   []PricePoint `json:"market_caps,omitempty"`
	TotalVolumes []PricePoint `json:"total_volumes,omitempty"`
}

// AssetInfo describes an asset.
type AssetInfo struct {
	TokenID           string `json:"token_id"`
	Name              string `json:"name,omitempty"`
	Symbol            string `json:"symbol,omitempty"`
	Decimals          int    `json:"decimals,omitempty"`
	Description       string `json:"description,omitempty"`
	TotalSupply       int64  `json:"total_supply,omitempty"`
	CirculatingSupply int64  `json:"circulating_supply,omitempty"`
	EmissionAmount    int64  `json:"emission_amount,omitempty"`
	BurnAmount        int64  `json:"burn_amount,omitempty"`
}

// CirculatingSupply carries a token's supply figures.
type CirculatingSupply struct {
	TokenID           string `json:"token_id"`
	CirculatingSupply int64  `json:"circulating_supply"`
	TotalSupply       int64  `json:"total_supply,omitempty"`
	BurnAmount        int64  `json:"burn_amount,omitempty"`
}

// TokenInfo extends AssetInfo with market figures.
type TokenInfo struct {
	TokenID           string  `json:"token_id"`
	Name              string  `json:"name,omitempty"`
	Symbol            string  `json:"symbol,omitempty"`
	Decimals          int     `json:"decimals,omitempty"`
	Description       string  `json:"description,omitempty"`
	LogoURL           string  `json:"logo_url,omitempty"`
	Website           string  `json:"website,omitempty"`
	TotalSupply       int64   `json:"total_supply,omitempty"`
	CirculatingSupply int64   `json:"circulating_supply,omitempty"`
	MarketCap         float64 `json:"market_cap,omitempty"`
	Price             float64 `json:"price,omitempty"`
}

// TxStats carries per-transaction statistics.
type TxStats struct {
	TxID             string `json:"tx_id"`
	Fee              int64  `json:"fee,omitempty"`
	Size             int    `json:"size,omitempty"`
	NumInputs        int    `json:"num_inputs,omitempty"`
	NumOutputs       int    `json:"num_outputs,omitempty"`
	TotalInputValue  int64  `json:"total_input_value,omitempty"`
	TotalOutputValue int64  `json:"total_output_value,omitempty"`
}

// SpectrumPrice is a DEX spot price.
type SpectrumPrice struct {
	TokenID    string  `json:"token_id"`
	Price      float64 `json:"price"`
	BaseToken  string  `json:"base_token,omitempty"`
	QuoteToken string  `json:"quote_token,omitempty"`
	Liquidity  float64 `json:"liquidity,omitempty"`
	Volume24h  float64 `json:"volume_24h,omitempty"`
	Timestamp  int64   `json:"timestamp,omitempty"`
}

// SpectrumPriceStats summarizes DEX price movement over a window: minimum,
// maximum and mean price between TimePoint-TimeWindow and TimePoint.
type SpectrumPriceStats struct {
	TokenID string  `json:"token_id"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

// CandleHistory is a series of OHLCV bars plus the upstream paging status
// ("ok", "error" or "no_data").
type CandleHistory struct {
	Bars     []Candle `json:"bars"`
	Status   string   `json:"s"`
	NextTime int64    `json:"nextTime,omitempty"`
}

// SymbolMatch is one symbol search result.
type SymbolMatch struct {
	Symbol      string `json:"symbol"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Exchange    string `json:"exchange,omitempty"`
	Type        string `json:"type,omitempty"`
}

// ServiceInfo describes the upstream service itself.
type ServiceInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Endpoints   []string `json:"endpoints,omitempty"`
	Status      string   `json:"status,omitempty"`
}
