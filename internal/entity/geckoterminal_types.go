package entity

// GTPoolsResponse mirrors GeckoTerminal /networks/{network}/tokens/{address}/pools.
type GTPoolsResponse struct {
	Data []GTPool `json:"data"`
}

// GTPool is one pool entry from the GeckoTerminal pools listing.
type GTPool struct {
	ID         string           `json:"id"`
	Attributes GTPoolAttributes `json:"attributes"`
}

// GTPoolAttributes holds the pool fields the market service reads.
// Numeric values arrive as strings on the wire.
type GTPoolAttributes struct {
	Address               string            `json:"address"`
	Name                  string            `json:"name"`
	BaseTokenPriceUSD     string            `json:"base_token_price_usd"`
	ReserveInUSD          string            `json:"reserve_in_usd"`
	VolumeUSD             map[string]string `json:"volume_usd"`
	PriceChangePercentage map[string]string `json:"price_change_percentage"`
}

// GTOHLCVResponse mirrors GeckoTerminal /networks/{network}/pools/{pool}/ohlcv/{timeframe}.
// Each list entry is [timestampSeconds, open, high, low, close, volume].
type GTOHLCVResponse struct {
	Data struct {
		Attributes struct {
			OHLCVList [][6]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}
