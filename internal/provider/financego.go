package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"ADRFlow/internal/model"
)

// FinanceGoProvider implements Provider with the piquette/finance-go chart client.
// The client carries its own HTTP backend, so proxy and timeout settings do not apply.
type FinanceGoProvider struct{}

func NewFinanceGoProvider() *FinanceGoProvider { return &FinanceGoProvider{} }

func (p *FinanceGoProvider) Name() string { return "financego" }

func (p *FinanceGoProvider) History(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&from),
		End:      datetime.New(&to),
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	var bars []model.Bar
	for iter.Next() {
		b := iter.Bar()
		fields := map[model.Field]float64{
			model.FieldOpen:   toFloat(b.Open),
			model.FieldHigh:   toFloat(b.High),
			model.FieldLow:    toFloat(b.Low),
			model.FieldClose:  toFloat(b.Close),
			model.FieldVolume: float64(b.Volume),
		}
		// finance-go leaves AdjClose zero when Yahoo omits the series.
		if b.AdjClose.Sign() != 0 {
			fields[model.FieldAdjClose] = toFloat(b.AdjClose)
		}
		bars = append(bars, model.NewBar(time.Unix(int64(b.Timestamp), 0).UTC(), fields))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart: %w", err)
	}
	return inWindow(bars, from, to), nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
