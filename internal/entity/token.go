package entity

// ZeroAddress represents the EVM zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenInfo holds the static details of a tracked token.
// The token table is loaded once at startup and is immutable at runtime.
type TokenInfo struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Name     string `json:"name" yaml:"name"`
	Address  string `json:"address" yaml:"address"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
	LogoURI  string `json:"logoURI,omitempty" yaml:"logoURI,omitempty"`
}

// PriceQuote is the normalized price record produced by the resolver cascade.
// A zero USD price means "unknown", not "worthless".
type PriceQuote struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
	Source    string  `json:"source,omitempty"`
}
