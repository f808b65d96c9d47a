package provider

import (
	"context"
	"sync"
	"time"

	"ADRFlow/internal/model"
)

// StaticProvider serves fixed bars from memory for development and testing.
type StaticProvider struct {
	mu    sync.Mutex
	bars  map[string][]model.Bar
	errs  map[string]error
	calls map[string]int
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		bars:  map[string][]model.Bar{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (p *StaticProvider) Name() string { return "static" }

// Add appends a bar for symbol dated on day with the given fields.
func (p *StaticProvider) Add(symbol string, day time.Time, fields map[model.Field]float64) *StaticProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[symbol] = append(p.bars[symbol], model.NewBar(day, fields))
	return p
}

// AddClose is Add with an adjusted close, close and volume.
func (p *StaticProvider) AddClose(symbol string, day time.Time, price, volume float64) *StaticProvider {
	return p.Add(symbol, day, map[model.Field]float64{
		model.FieldAdjClose: price,
		model.FieldClose:    price,
		model.FieldVolume:   volume,
	})
}

// Fail makes every request for symbol return err.
func (p *StaticProvider) Fail(symbol string, err error) *StaticProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[symbol] = err
	return p
}

// Calls reports how many times symbol was requested.
func (p *StaticProvider) Calls(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[symbol]
}

func (p *StaticProvider) History(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[symbol]++
	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	return inWindow(p.bars[symbol], from, to), nil
}
