package evm

import (
	"math/big"
	"strings"

	"cosmossdk.io/math"

	"qrypta/pqc/internal/models"
)

// Decimals is the fixed number of decimal places of the transferred token
const Decimals = math.LegacyPrecision

// maxUint256BitLen bounds amounts to what the contract's uint256 argument can carry
const maxUint256BitLen = 256

// ToBaseUnits converts a human decimal amount to base units without rounding.
// Amounts with more than Decimals fractional digits cannot be represented and fail.
func ToBaseUnits(amountHuman string) (*big.Int, error) {
	s := strings.TrimSpace(amountHuman)

	dec, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return nil, models.Errorf(models.KindAmountConversion,
			"amount %q is not a decimal with at most %d fractional digits", s, Decimals)
	}
	if !dec.IsPositive() {
		return nil, models.Errorf(models.KindAmountConversion, "amount %q must be greater than zero", s)
	}

	wei := dec.BigInt()
	if wei.BitLen() > maxUint256BitLen {
		return nil, models.Errorf(models.KindAmountConversion, "amount %q overflows uint256", s)
	}

	return wei, nil
}

// FormatBaseUnits renders base units as a human decimal with no trailing zeros
func FormatBaseUnits(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	s := math.LegacyNewDecFromBigIntWithPrec(wei, Decimals).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
