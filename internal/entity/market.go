package entity

// ChartPeriod selects the market-chart window requested from CoinGecko.
type ChartPeriod string

const (
	Period1D   ChartPeriod = "1d"
	Period7D   ChartPeriod = "7d"
	Period30D  ChartPeriod = "30d"
	Period365D ChartPeriod = "365d"
	PeriodMax  ChartPeriod = "max"
)

// Days returns the CoinGecko days query value for the period,
// defaulting to 30 days for unknown inputs.
func (p ChartPeriod) Days() string {
	switch p {
	case Period1D:
		return "1"
	case Period7D:
		return "7"
	case Period30D:
		return "30"
	case Period365D:
		return "365"
	case PeriodMax:
		return "max"
	default:
		return "30"
	}
}

// PricePoint is one sample of a price history series.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume,omitempty"`
}

// TokenMarketData aggregates spot metrics and a history series for a token.
type TokenMarketData struct {
	Price        float64      `json:"price"`
	Change24h    float64      `json:"change24h"`
	Change7d     float64      `json:"change7d"`
	Volume24h    float64      `json:"volume24h"`
	MarketCap    float64      `json:"marketCap"`
	FDV          float64      `json:"fdv"`
	High24h      float64      `json:"high24h"`
	Low24h       float64      `json:"low24h"`
	PriceHistory []PricePoint `json:"priceHistory"`
}

// CoinMarketResponse mirrors the fields read from CoinGecko /coins/{id}.
type CoinMarketResponse struct {
	MarketData struct {
		CurrentPrice          map[string]float64 `json:"current_price"`
		PriceChange24h        float64            `json:"price_change_percentage_24h"`
		PriceChange7d         float64            `json:"price_change_percentage_7d"`
		TotalVolume           map[string]float64 `json:"total_volume"`
		MarketCap             map[string]float64 `json:"market_cap"`
		FullyDilutedValuation map[string]float64 `json:"fully_diluted_valuation"`
		High24h               map[string]float64 `json:"high_24h"`
		Low24h                map[string]float64 `json:"low_24h"`
	} `json:"market_data"`
}

// CoinMarketChartResponse mirrors CoinGecko /coins/{id}/market_chart.
// Each entry is a [timestampMillis, value] pair.
type CoinMarketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}
