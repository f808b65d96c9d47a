package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"ADRFlow/internal/metrics"
	"ADRFlow/internal/model"
)

// Limited throttles an underlying provider with a token bucket and records request latency.
type Limited struct {
	next    Provider
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewLimited wraps next. rps <= 0 disables throttling.
func NewLimited(next Provider, rps float64, burst int, m *metrics.Metrics) *Limited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst), metrics: m}
}

func (l *Limited) Name() string { return l.next.Name() }

func (l *Limited) History(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	start := time.Now()
	bars, err := l.next.History(ctx, symbol, from, to)
	l.metrics.ObserveRequest(l.next.Name(), time.Since(start))
	return bars, err
}
