package monitor

import (
	"math/big"
	"strings"

	"spreadSpy/internal/model"
)

const (
	priceScale  = 8
	spreadScale = 4
	ratioScale  = 18
)

// formatTokenAmount scales a raw integer amount by 10^decimals.
func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := trimZeros(rat.FloatString(int(decimals)))
	if sign < 0 {
		return "-" + text
	}
	return text
}

func formatRat(value *big.Rat, scale int) string {
	if value == nil {
		return ""
	}
	return value.FloatString(scale)
}

func formatReserves(snapshot *model.ReserveSnapshot, decimals uint8) *model.Reserves {
	if snapshot == nil || snapshot.Reserve0 == nil || snapshot.Reserve1 == nil {
		return nil
	}
	return &model.Reserves{
		Reserve0: formatTokenAmount(snapshot.Reserve0, decimals),
		Reserve1: formatTokenAmount(snapshot.Reserve1, decimals),
	}
}

func trimZeros(text string) string {
	if !strings.Contains(text, ".") {
		return text
	}
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}
