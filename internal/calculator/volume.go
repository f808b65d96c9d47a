package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ADRFlow/internal/model"
)

// DollarVolume sums price*volume over the records. An empty slice sums to 0.
// Products are accumulated as decimals so the total does not depend on record order.
func DollarVolume(records []model.TradingRecord) float64 {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(decimal.NewFromFloat(r.Price).Mul(decimal.NewFromFloat(r.Volume)))
	}
	f, _ := sum.Float64()
	return f
}

// Ratio divides the local price by the foreign price.
func Ratio(local, foreign float64) (float64, error) {
	if foreign == 0 {
		return 0, errors.New("foreign price is zero")
	}
	return local / foreign, nil
}

// Normalize converts a raw local dollar volume with the conversion ratio.
// An invalid ratio yields 0 and ErrRatioUnavailable.
func Normalize(raw float64, ratio model.ConversionRatio) (float64, error) {
	if !ratio.Valid || ratio.Value == 0 {
		return 0, fmt.Errorf("normalize %.2f: %w", raw, model.ErrRatioUnavailable)
	}
	return raw / ratio.Value, nil
}

// PercentChange returns (to-from)/from*100. ok is false when from is 0.
func PercentChange(from, to float64) (pct float64, ok bool) {
	if from == 0 {
		return 0, false
	}
	return (to - from) / from * 100, true
}

// Shares returns each value's fraction of the total, 0 when the total is 0.
func Shares(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	if total == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / total
	}
	return out
}
