package basket

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ADRFlow/internal/calculator"
	"ADRFlow/internal/model"
	"ADRFlow/internal/provider"
	"ADRFlow/internal/resolver"
)

var target = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func newAggregator(p provider.Provider, concurrency int) *Aggregator {
	return NewAggregator(resolver.New(p, resolver.Options{}, nil, nil), concurrency, nil)
}

func TestDefault(t *testing.T) {
	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 1, def.Version)
	assert.Equal(t, model.CrossListing{Local: "YPFD.BA", Foreign: "YPF"}, def.CrossListing)
	require.Len(t, def.Baskets, 3)

	adr, ok := def.Get("adr")
	require.True(t, ok)
	assert.False(t, adr.Normalize)
	assert.Len(t, adr.Symbols, 13)

	lider, _ := def.Get("panel_lider")
	assert.True(t, lider.Normalize)
	assert.Len(t, lider.Symbols, 21)

	general, _ := def.Get("panel_general")
	assert.Len(t, general.Symbols, 45)
	assert.Equal(t, 79, def.SymbolCount())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no baskets", "version: 1\ncross_listing: {local: A.BA, foreign: A}\nbaskets: []\n"},
		{"missing version", "cross_listing: {local: A.BA, foreign: A}\nbaskets: [{name: x, currency: USD, symbols: [A]}]\n"},
		{"same pair legs", "version: 1\ncross_listing: {local: A, foreign: A}\nbaskets: [{name: x, currency: USD, symbols: [A]}]\n"},
		{"empty symbols", "version: 1\ncross_listing: {local: A.BA, foreign: A}\nbaskets: [{name: x, currency: USD, symbols: []}]\n"},
		{"duplicate name", "version: 1\ncross_listing: {local: A.BA, foreign: A}\nbaskets: [{name: x, currency: USD, symbols: [A]}, {name: x, currency: USD, symbols: [B]}]\n"},
		{"overlapping symbols", "version: 1\ncross_listing: {local: A.BA, foreign: A}\nbaskets: [{name: x, currency: USD, symbols: [A]}, {name: y, currency: USD, symbols: [A]}]\n"},
		{"not yaml", "version: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baskets.yaml")
	content := "version: 2\ncross_listing: {local: GGAL.BA, foreign: GGAL}\nbaskets:\n  - {name: adr, currency: USD, symbols: [GGAL]}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, def.Version)
	assert.Equal(t, "GGAL", def.CrossListing.Foreign)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAggregate_PartialFailure(t *testing.T) {
	p := provider.NewStaticProvider().AddClose("AAA", target.AddDate(0, 0, -1), 2, 50)
	b := model.Basket{Name: "test", Currency: "USD", Symbols: []string{"AAA", "BBB"}}

	res := newAggregator(p, 1).Aggregate(context.Background(), b, target)
	require.Len(t, res.Resolved, 1)
	assert.Equal(t, 100.0, calculator.DollarVolume(res.Resolved))
	assert.Equal(t, []string{"BBB"}, res.FailedSymbols())
	assert.ErrorIs(t, res.Failed[0].Err, model.ErrNoDataInWindow)
	require.Len(t, res.Warnings(), 1)
	assert.Contains(t, res.Warnings()[0], "BBB")
}

func TestAggregate_AllFail(t *testing.T) {
	p := provider.NewStaticProvider().Fail("AAA", errors.New("timeout"))
	b := model.Basket{Name: "test", Symbols: []string{"AAA", "BBB", "CCC"}}

	res := newAggregator(p, 1).Aggregate(context.Background(), b, target)
	assert.Empty(t, res.Resolved)
	assert.Equal(t, 0.0, calculator.DollarVolume(res.Resolved))
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, res.FailedSymbols())
}

func TestAggregate_PartitionInvariant(t *testing.T) {
	p := provider.NewStaticProvider()
	var symbols []string
	for i, s := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		symbols = append(symbols, s)
		switch i % 3 {
		case 0:
			p.AddClose(s, target.AddDate(0, 0, -i%7), float64(i+1), float64(10*i))
		case 1:
			p.Fail(s, errors.New("down"))
		}
	}
	b := model.Basket{Name: "test", Symbols: symbols}

	for _, concurrency := range []int{1, 4} {
		res := newAggregator(p, concurrency).Aggregate(context.Background(), b, target)
		assert.Equal(t, len(symbols), len(res.Resolved)+len(res.Failed))
		assert.Equal(t, []string{"B", "C", "E", "F", "H", "I"}, res.FailedSymbols(), "concurrency %d", concurrency)
	}
}

func TestAggregate_OrderInvariantSum(t *testing.T) {
	p := provider.NewStaticProvider().
		AddClose("A", target, 0.1, 3).
		AddClose("B", target, 1234.5678, 98765).
		AddClose("C", target, 3.3333, 12345)
	agg := newAggregator(p, 2)

	forward := agg.Aggregate(context.Background(), model.Basket{Name: "x", Symbols: []string{"A", "B", "C", "D"}}, target)
	backward := agg.Aggregate(context.Background(), model.Basket{Name: "x", Symbols: []string{"D", "C", "B", "A"}}, target)
	assert.Equal(t, calculator.DollarVolume(forward.Resolved), calculator.DollarVolume(backward.Resolved))
}

func TestConversionRatio(t *testing.T) {
	pair := model.CrossListing{Local: "YPFD.BA", Foreign: "YPF"}

	t.Run("both legs resolve", func(t *testing.T) {
		p := provider.NewStaticProvider().
			AddClose("YPFD.BA", target, 1000, 1).
			AddClose("YPF", target, 20, 1)
		ratio, err := newAggregator(p, 1).ConversionRatio(context.Background(), pair, target)
		require.NoError(t, err)
		assert.True(t, ratio.Valid)
		assert.Equal(t, 50.0, ratio.Value)
		require.NotNil(t, ratio.Local)
		assert.Equal(t, 1000.0, ratio.Local.Price)

		v, err := calculator.Normalize(5000, ratio)
		require.NoError(t, err)
		assert.Equal(t, 100.0, v)
	})

	t.Run("foreign price zero", func(t *testing.T) {
		p := provider.NewStaticProvider().
			AddClose("YPFD.BA", target, 1000, 1).
			AddClose("YPF", target, 0, 1)
		ratio, err := newAggregator(p, 1).ConversionRatio(context.Background(), pair, target)
		assert.ErrorIs(t, err, model.ErrRatioUnavailable)
		assert.False(t, ratio.Valid)

		v, err := calculator.Normalize(5000, ratio)
		assert.ErrorIs(t, err, model.ErrRatioUnavailable)
		assert.Equal(t, 0.0, v)
	})

	t.Run("local leg fails", func(t *testing.T) {
		p := provider.NewStaticProvider().AddClose("YPF", target, 20, 1)
		ratio, err := newAggregator(p, 1).ConversionRatio(context.Background(), pair, target)
		assert.ErrorIs(t, err, model.ErrRatioUnavailable)
		assert.ErrorIs(t, err, model.ErrNoDataInWindow)
		assert.False(t, ratio.Valid)
	})

	t.Run("foreign leg fails", func(t *testing.T) {
		p := provider.NewStaticProvider().
			AddClose("YPFD.BA", target, 1000, 1).
			Fail("YPF", errors.New("503"))
		ratio, err := newAggregator(p, 1).ConversionRatio(context.Background(), pair, target)
		assert.ErrorIs(t, err, model.ErrRatioUnavailable)
		assert.ErrorIs(t, err, model.ErrTransport)
		assert.False(t, ratio.Valid)
		assert.NotNil(t, ratio.Local)
	})
}
