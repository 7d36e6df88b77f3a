package entity

// TokenBalance represents one token row of a wallet portfolio.
type TokenBalance struct {
	Token     TokenInfo `json:"token"`
	Balance   string    `json:"balance"`
	ValueUSD  float64   `json:"valueUSD"`
	Change24h float64   `json:"change24h"`
}

// Portfolio is the aggregated view over all tracked tokens for one wallet.
// Ordering: the native token first, the rest descending by ValueUSD.
type Portfolio struct {
	WalletAddress string         `json:"walletAddress"`
	Balances      []TokenBalance `json:"balances"`
	TotalValueUSD float64        `json:"totalValueUSD"`
}
