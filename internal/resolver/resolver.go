package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ADRFlow/internal/metrics"
	"ADRFlow/internal/model"
	"ADRFlow/internal/provider"
)

// DefaultLookbackDays is how far before the target date a record may come from.
const DefaultLookbackDays = 7

// Options tunes a Resolver.
type Options struct {
	LookbackDays int
	Debug        bool
}

// Resolver finds the latest trading record at or before a target date.
type Resolver struct {
	provider provider.Provider
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a Resolver. A nil logger discards output.
func New(p provider.Provider, opts Options, logger *zap.Logger, m *metrics.Metrics) *Resolver {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		provider: p,
		opts:     opts,
		logger:   logger.With(zap.String("provider", p.Name())),
		metrics:  m,
	}
}

// Window returns [target-lookback, target+1 day).
func (r *Resolver) Window(target time.Time) (from, to time.Time) {
	target = model.CalendarDate(target)
	return target.AddDate(0, 0, -r.opts.LookbackDays), target.AddDate(0, 0, 1)
}

// Resolve returns the latest record in the window for symbol. Failures are
// returned as *Error and logged as warnings; the provider's errors never escape raw.
func (r *Resolver) Resolve(ctx context.Context, symbol string, target time.Time) (model.TradingRecord, error) {
	target = model.CalendarDate(target)
	from, to := r.Window(target)
	if r.opts.Debug {
		r.logger.Debug("querying history",
			zap.String("symbol", symbol),
			zap.String("from", from.Format(model.DateLayout)),
			zap.String("to", to.Format(model.DateLayout)))
	}

	rec, err := r.resolve(ctx, symbol, target, from, to)
	if err != nil {
		r.metrics.ObserveResolution(outcome(err.Kind))
		r.logger.Warn("symbol resolution failed",
			zap.String("symbol", symbol),
			zap.String("date", target.Format(model.DateLayout)),
			zap.String("reason", err.Error()))
		return model.TradingRecord{}, err
	}
	r.metrics.ObserveResolution(metrics.OutcomeOK)
	return rec, nil
}

func (r *Resolver) resolve(ctx context.Context, symbol string, target, from, to time.Time) (model.TradingRecord, *Error) {
	bars, err := r.provider.History(ctx, symbol, from, to)
	if err != nil {
		return model.TradingRecord{}, &Error{Symbol: symbol, Kind: model.ErrTransport, Err: err}
	}

	var latest *model.Bar
	for i := range bars {
		b := &bars[i]
		if b.Date.Before(from) || !b.Date.Before(to) {
			continue
		}
		if latest == nil || b.Date.After(latest.Date) {
			latest = b
		}
	}
	if latest == nil {
		return model.TradingRecord{}, &Error{
			Symbol: symbol,
			Kind:   model.ErrNoDataInWindow,
			Detail: fmt.Sprintf("%s to %s", from.Format(model.DateLayout), target.Format(model.DateLayout)),
		}
	}
	if latest.Date.After(target) {
		r.logger.Warn("latest record is after target date",
			zap.String("symbol", symbol),
			zap.String("target", target.Format(model.DateLayout)),
			zap.String("record", latest.Date.Format(model.DateLayout)))
	}

	field, price, ok := latest.Lookup(model.PriceFields...)
	if !ok {
		return model.TradingRecord{}, &Error{
			Symbol: symbol,
			Kind:   model.ErrFieldExtraction,
			Detail: "no price on " + latest.Date.Format(model.DateLayout),
		}
	}
	_, volume, ok := latest.Lookup(model.FieldVolume)
	if !ok {
		return model.TradingRecord{}, &Error{
			Symbol: symbol,
			Kind:   model.ErrFieldExtraction,
			Detail: "no volume on " + latest.Date.Format(model.DateLayout),
		}
	}

	rec := model.TradingRecord{
		Symbol:     symbol,
		Date:       latest.Date,
		Price:      price,
		Volume:     volume,
		PriceField: field,
	}
	if r.opts.Debug {
		r.logger.Debug("resolved",
			zap.String("symbol", symbol),
			zap.String("date", rec.Date.Format(model.DateLayout)),
			zap.Float64("price", rec.Price),
			zap.Float64("volume", rec.Volume),
			zap.String("price_field", string(field)))
	}
	return rec, nil
}
