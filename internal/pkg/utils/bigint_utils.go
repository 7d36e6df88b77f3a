package utils

import (
	"math/big"
	"strings"
)

// maxFractionDigits caps how many fractional digits are displayed.
const maxFractionDigits = 6

var bigTen = big.NewInt(10)

// FormatBalance converts a raw integer token amount to a display string,
// splitting on 10^decimals and truncating (not rounding) the fraction to at
// most six digits, with trailing zeros stripped.
// Example: amount=1500000000000000000, decimals=18 => "1.5".
//
// When the integer part is zero but the amount is not, the truncated fraction
// window is kept verbatim, leading zeros included, so sub-unit balances stay
// visible ("0.000042"). A balance too small for the window still renders as
// all zeros ("0.000000" for 1 unit at 18 decimals); that matches the product's
// display rules and is deliberate.
func FormatBalance(amount *big.Int, decimals uint8) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	divisor := new(big.Int).Exp(bigTen, big.NewInt(int64(decimals)), nil)
	integerPart := new(big.Int)
	fractionalPart := new(big.Int)
	integerPart.QuoRem(amount, divisor, fractionalPart)

	fracDigits := int(decimals)
	if fracDigits > maxFractionDigits {
		fracDigits = maxFractionDigits
	}

	fractionalStr := fractionalPart.String()
	if pad := int(decimals) - len(fractionalStr); pad > 0 {
		fractionalStr = strings.Repeat("0", pad) + fractionalStr
	}
	window := fractionalStr[:fracDigits]

	trimmed := strings.TrimRight(window, "0")
	if trimmed == "" {
		trimmed = "0"
	}

	if integerPart.Sign() == 0 && amount.Sign() > 0 {
		return "0." + window
	}

	if trimmed == "0" {
		return integerPart.String()
	}
	return integerPart.String() + "." + trimmed
}
