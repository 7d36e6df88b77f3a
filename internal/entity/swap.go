package entity

// PoolConfig identifies a v4 liquidity pool candidate for a token pair.
type PoolConfig struct {
	Fee         int    `json:"fee" yaml:"fee"`
	TickSpacing int    `json:"tickSpacing" yaml:"tickSpacing"`
	Hooks       string `json:"hooks" yaml:"hooks"`
}

// KnownPool is one entry of the static pool table shipped with the service.
type KnownPool struct {
	Symbol       string `json:"symbol" yaml:"symbol"`
	Token0       string `json:"token0" yaml:"token0"`
	Token0Symbol string `json:"token0Symbol" yaml:"token0Symbol"`
	Token1       string `json:"token1" yaml:"token1"`
	Token1Symbol string `json:"token1Symbol" yaml:"token1Symbol"`
	Fee          int    `json:"fee" yaml:"fee"`
	TickSpacing  int    `json:"tickSpacing" yaml:"tickSpacing"`
	Hooks        string `json:"hooks" yaml:"hooks"`
}

// SwapQuote is a price-derived estimate for a token swap.
// Amounts are decimal strings in the smallest unit of their token.
type SwapQuote struct {
	TokenIn      string       `json:"tokenIn"`
	TokenOut     string       `json:"tokenOut"`
	AmountIn     string       `json:"amountIn"`
	AmountOut    string       `json:"amountOut"`
	AmountOutMin string       `json:"amountOutMin"`
	PriceInUSD   float64      `json:"priceInUSD"`
	PriceOutUSD  float64      `json:"priceOutUSD"`
	SlippageBps  int          `json:"slippageBps"`
	Deadline     int64        `json:"deadline"` // unix seconds
	Pools        []PoolConfig `json:"pools"`
}
