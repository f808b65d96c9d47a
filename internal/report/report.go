package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ADRFlow/internal/basket"
	"ADRFlow/internal/calculator"
	"ADRFlow/internal/metrics"
	"ADRFlow/internal/model"
)

// BasketSummary is one basket's figures for one date.
type BasketSummary struct {
	Name       string                `json:"name"`
	Label      string                `json:"label"`
	Currency   string                `json:"currency"`
	Normalized bool                  `json:"normalized"`
	Symbols    int                   `json:"symbols"`
	Resolved   []model.TradingRecord `json:"resolved"`
	Failed     []string              `json:"failed"`
	Raw        float64               `json:"raw_dollar_volume"`
	Value      float64               `json:"value"`
	Available  bool                  `json:"available"`
	Share      float64               `json:"share"`
}

// Snapshot is every basket for one target date.
type Snapshot struct {
	Date     time.Time             `json:"date"`
	Ratio    model.ConversionRatio `json:"ratio"`
	Baskets  []BasketSummary       `json:"baskets"`
	Total    float64               `json:"total"`
	Warnings []string              `json:"warnings"`
}

// Change compares a basket's value between the two snapshots.
type Change struct {
	Basket       string  `json:"basket"`
	From         float64 `json:"from"`
	To           float64 `json:"to"`
	Delta        float64 `json:"delta"`
	Percent      float64 `json:"percent"`
	PercentValid bool    `json:"percent_valid"`
}

// Report is the result of one request.
type Report struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Version   int        `json:"definition_version"`
	Snapshots []Snapshot `json:"snapshots"`
	Changes   []Change   `json:"changes,omitempty"`
}

// Warnings flattens every snapshot's warnings, prefixed with the date.
func (r *Report) Warnings() []string {
	var out []string
	for _, s := range r.Snapshots {
		for _, w := range s.Warnings {
			out = append(out, s.Date.Format(model.DateLayout)+" "+w)
		}
	}
	return out
}

// Builder assembles reports from a basket definition.
type Builder struct {
	def      *basket.Definition
	agg      *basket.Aggregator
	logger   *zap.Logger
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
}

// NewBuilder creates a Builder. loc decides what "today" means when
// rejecting future dates; nil means UTC.
func NewBuilder(def *basket.Definition, agg *basket.Aggregator, loc *time.Location, logger *zap.Logger, m *metrics.Metrics) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{def: def, agg: agg, logger: logger, metrics: m, location: loc, now: time.Now}
}

// Today is the current calendar date in the builder's location.
func (b *Builder) Today() time.Time {
	return model.CalendarDate(b.now().In(b.location))
}

// ValidateDate rejects dates after today.
func (b *Builder) ValidateDate(d time.Time) error {
	if model.CalendarDate(d).After(b.Today()) {
		return fmt.Errorf("%s: %w", d.Format(model.DateLayout), model.ErrFutureDate)
	}
	return nil
}

// Build produces a report for one or two dates. With two dates the first is
// the earlier reference and changes are computed towards the second.
func (b *Builder) Build(ctx context.Context, dates ...time.Time) (*Report, error) {
	if len(dates) == 0 {
		return nil, model.ErrNoDates
	}
	if len(dates) > 2 {
		return nil, model.ErrTooManyDates
	}
	for _, d := range dates {
		if err := b.ValidateDate(d); err != nil {
			return nil, err
		}
	}

	rep := &Report{
		ID:        uuid.NewString(),
		CreatedAt: b.now(),
		Version:   b.def.Version,
	}
	logger := b.logger.With(zap.String("report_id", rep.ID))
	for _, d := range dates {
		snap := b.snapshot(ctx, model.CalendarDate(d))
		logger.Info("snapshot built",
			zap.String("date", snap.Date.Format(model.DateLayout)),
			zap.Float64("total", snap.Total),
			zap.Int("warnings", len(snap.Warnings)))
		rep.Snapshots = append(rep.Snapshots, snap)
	}
	if len(rep.Snapshots) == 2 {
		rep.Changes = changes(rep.Snapshots[0], rep.Snapshots[1])
	}

	latest := rep.Snapshots[len(rep.Snapshots)-1]
	for _, s := range latest.Baskets {
		b.metrics.SetDollarVolume(s.Name, s.Value)
	}
	return rep, nil
}

func (b *Builder) snapshot(ctx context.Context, date time.Time) Snapshot {
	snap := Snapshot{Date: date}

	// One ratio per date, shared by every normalized basket.
	ratio, ratioErr := b.agg.ConversionRatio(ctx, b.def.CrossListing, date)
	snap.Ratio = ratio
	if ratioErr != nil {
		snap.Warnings = append(snap.Warnings, ratioErr.Error())
	}

	values := make([]float64, 0, len(b.def.Baskets))
	for _, bk := range b.def.Baskets {
		res := b.agg.Aggregate(ctx, bk, date)
		sum := BasketSummary{
			Name:       bk.Name,
			Label:      bk.Label,
			Currency:   bk.Currency,
			Normalized: bk.Normalize,
			Symbols:    len(bk.Symbols),
			Resolved:   res.Resolved,
			Failed:     res.FailedSymbols(),
			Raw:        calculator.DollarVolume(res.Resolved),
			Available:  true,
		}
		snap.Warnings = append(snap.Warnings, res.Warnings()...)

		sum.Value = sum.Raw
		if bk.Normalize {
			v, err := calculator.Normalize(sum.Raw, ratio)
			if err != nil {
				sum.Available = false
				snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s: value reported as 0: %v", bk.Name, err))
			}
			sum.Value = v
		}
		values = append(values, sum.Value)
		snap.Baskets = append(snap.Baskets, sum)
	}

	for i, share := range calculator.Shares(values) {
		snap.Baskets[i].Share = share
		snap.Total += snap.Baskets[i].Value
	}
	return snap
}

func changes(from, to Snapshot) []Change {
	out := make([]Change, 0, len(to.Baskets))
	for i, cur := range to.Baskets {
		prev := from.Baskets[i]
		c := Change{
			Basket: cur.Name,
			From:   prev.Value,
			To:     cur.Value,
			Delta:  cur.Value - prev.Value,
		}
		c.Percent, c.PercentValid = calculator.PercentChange(prev.Value, cur.Value)
		out = append(out, c)
	}
	return out
}
