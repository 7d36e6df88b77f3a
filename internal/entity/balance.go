package entity

import "math/big"

// RawBalance is an integer token amount as read from the chain.
// Produced per fetch cycle; never persisted.
type RawBalance struct {
	Token  TokenInfo
	Amount *big.Int
}
