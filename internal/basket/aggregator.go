package basket

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ADRFlow/internal/calculator"
	"ADRFlow/internal/model"
)

// Resolver resolves one symbol for one date.
type Resolver interface {
	Resolve(ctx context.Context, symbol string, target time.Time) (model.TradingRecord, error)
}

// Aggregator resolves baskets symbol by symbol. It holds no state between calls.
type Aggregator struct {
	resolver    Resolver
	concurrency int
	logger      *zap.Logger
}

// NewAggregator creates an Aggregator. concurrency <= 1 resolves symbols one
// at a time in basket order.
func NewAggregator(r Resolver, concurrency int, logger *zap.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{resolver: r, concurrency: concurrency, logger: logger}
}

type outcome struct {
	rec model.TradingRecord
	err error
}

// Aggregate resolves every symbol of b for target. A symbol's failure never
// affects the others; results keep basket order.
func (a *Aggregator) Aggregate(ctx context.Context, b model.Basket, target time.Time) *model.BasketResult {
	target = model.CalendarDate(target)
	outcomes := make([]outcome, len(b.Symbols))

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for i, sym := range b.Symbols {
		g.Go(func() error {
			rec, err := a.resolver.Resolve(ctx, sym, target)
			outcomes[i] = outcome{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := &model.BasketResult{Basket: b.Name, Date: target}
	for i, o := range outcomes {
		if o.err != nil {
			res.Failed = append(res.Failed, model.Failure{Symbol: b.Symbols[i], Err: o.err})
			continue
		}
		res.Resolved = append(res.Resolved, o.rec)
	}

	a.logger.Info("basket aggregated",
		zap.String("basket", b.Name),
		zap.String("date", target.Format(model.DateLayout)),
		zap.Int("resolved", len(res.Resolved)),
		zap.Int("failed", len(res.Failed)),
		zap.Float64("dollar_volume", calculator.DollarVolume(res.Resolved)))
	return res
}

// ConversionRatio resolves both legs of pair for target. The returned ratio is
// invalid, with an error wrapping ErrRatioUnavailable, when a leg fails or the
// foreign price is zero.
func (a *Aggregator) ConversionRatio(ctx context.Context, pair model.CrossListing, target time.Time) (model.ConversionRatio, error) {
	target = model.CalendarDate(target)
	ratio := model.ConversionRatio{Pair: pair, Date: target}

	local, err := a.resolver.Resolve(ctx, pair.Local, target)
	if err != nil {
		return ratio, a.unavailable(ratio, fmt.Errorf("%w: local leg: %w", model.ErrRatioUnavailable, err))
	}
	ratio.Local = &local

	foreign, err := a.resolver.Resolve(ctx, pair.Foreign, target)
	if err != nil {
		return ratio, a.unavailable(ratio, fmt.Errorf("%w: foreign leg: %w", model.ErrRatioUnavailable, err))
	}
	ratio.Foreign = &foreign

	v, err := calculator.Ratio(local.Price, foreign.Price)
	if err != nil {
		return ratio, a.unavailable(ratio, fmt.Errorf("%w: %s %v", model.ErrRatioUnavailable, pair.Foreign, err))
	}
	ratio.Value = v
	ratio.Valid = true
	return ratio, nil
}

func (a *Aggregator) unavailable(ratio model.ConversionRatio, err error) error {
	a.logger.Warn("conversion ratio unavailable",
		zap.String("local", ratio.Pair.Local),
		zap.String("foreign", ratio.Pair.Foreign),
		zap.String("date", ratio.Date.Format(model.DateLayout)),
		zap.Error(err))
	return err
}
