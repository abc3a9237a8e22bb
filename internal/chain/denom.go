package chain

import (
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a display amount (e.g. LIKE) into base units (nanolike),
// dropping precision beyond the denomination. Amounts that do not fit an
// sdk Int are rejected.
func ToBaseUnits(amount decimal.Decimal, fractionDigits int) (sdkmath.Int, error) {
	base := amount.Shift(int32(fractionDigits)).Truncate(0).BigInt()
	if base.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Int{}, NewInvalidAmountError("too large")
	}
	return sdkmath.NewIntFromBigInt(base), nil
}

func FromBaseUnits(amount sdkmath.Int, fractionDigits int) decimal.Decimal {
	if amount.IsNil() {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount.BigInt(), -int32(fractionDigits))
}

func (d DenomInfo) ToBaseUnits(amount decimal.Decimal) (sdkmath.Int, error) {
	return ToBaseUnits(amount, d.FractionDigits)
}

func (d DenomInfo) FromBaseUnits(amount sdkmath.Int) decimal.Decimal {
	return FromBaseUnits(amount, d.FractionDigits)
}

// FormatDenom renders an amount like "1,234.5678 LIKE", keeping at most four decimals.
func (d DenomInfo) FormatDenom(amount decimal.Decimal) string {
	return formatDecimal(amount.Truncate(4)) + " " + d.DisplayDenom
}

func formatDecimal(amount decimal.Decimal) string {
	s := amount.String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + b.String() + fracPart
}
