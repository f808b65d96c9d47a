package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ADRFlow/internal/model"
)

func rec(symbol string, price, volume float64) model.TradingRecord {
	return model.TradingRecord{Symbol: symbol, Price: price, Volume: volume, Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)}
}

func TestDollarVolume_Empty(t *testing.T) {
	assert.Equal(t, 0.0, DollarVolume(nil))
	assert.Equal(t, 0.0, DollarVolume([]model.TradingRecord{}))
}

func TestDollarVolume_Sum(t *testing.T) {
	records := []model.TradingRecord{rec("AAA", 2, 50), rec("CCC", 1.5, 10)}
	assert.Equal(t, 115.0, DollarVolume(records))
}

func TestDollarVolume_OrderInvariant(t *testing.T) {
	records := []model.TradingRecord{
		rec("A", 0.1, 3), rec("B", 1e7, 0.7), rec("C", 3.3333, 12345),
		rec("D", 0.2, 1), rec("E", 1234.5678, 98765), rec("F", 0.3, 7),
	}
	want := DollarVolume(records)

	reversed := make([]model.TradingRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	assert.Equal(t, want, DollarVolume(reversed))

	rotated := append(append([]model.TradingRecord{}, records[3:]...), records[:3]...)
	assert.Equal(t, want, DollarVolume(rotated))
}

func TestRatio(t *testing.T) {
	r, err := Ratio(1000, 20)
	require.NoError(t, err)
	assert.Equal(t, 50.0, r)

	_, err = Ratio(1000, 0)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     float64
		ratio   model.ConversionRatio
		want    float64
		wantErr bool
	}{
		{"valid ratio", 5000, model.ConversionRatio{Value: 50, Valid: true}, 100, false},
		{"invalid ratio", 5000, model.ConversionRatio{}, 0, true},
		{"zero value marked valid", 5000, model.ConversionRatio{Value: 0, Valid: true}, 0, true},
		{"zero raw", 0, model.ConversionRatio{Value: 50, Valid: true}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.ratio)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.True(t, errors.Is(err, model.ErrRatioUnavailable))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	pct, ok := PercentChange(100, 150)
	assert.True(t, ok)
	assert.Equal(t, 50.0, pct)

	_, ok = PercentChange(0, 10)
	assert.False(t, ok)
}

func TestShares(t *testing.T) {
	assert.Equal(t, []float64{0.25, 0.75}, Shares([]float64{1, 3}))
	assert.Equal(t, []float64{0, 0}, Shares([]float64{0, 0}))
}
