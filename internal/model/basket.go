package model

import "time"

// Basket is a named, ordered group of symbols priced together.
type Basket struct {
	Name      string   `yaml:"name" json:"name" validate:"required"`
	Label     string   `yaml:"label" json:"label"`
	Currency  string   `yaml:"currency" json:"currency" validate:"required"`
	Normalize bool     `yaml:"normalize" json:"normalize"`
	Symbols   []string `yaml:"symbols" json:"symbols" validate:"required,min=1,dive,required"`
}

// CrossListing is a share quoted both locally and abroad. The ratio of the
// two prices converts local turnover into the foreign currency.
type CrossListing struct {
	Local   string `yaml:"local" json:"local" validate:"required"`
	Foreign string `yaml:"foreign" json:"foreign" validate:"required,nefield=Local"`
}

// Failure records why a symbol could not be resolved.
type Failure struct {
	Symbol string `json:"symbol"`
	Err    error  `json:"-"`
}

// Warning is the human-readable form of the failure.
func (f Failure) Warning() string {
	if f.Err == nil {
		return f.Symbol + ": unknown failure"
	}
	return f.Err.Error()
}

// BasketResult partitions a basket's symbols into resolved records and failures.
type BasketResult struct {
	Basket   string
	Date     time.Time
	Resolved []TradingRecord
	Failed   []Failure
}

// FailedSymbols lists failed symbols in attempt order.
func (r *BasketResult) FailedSymbols() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Symbol)
	}
	return out
}

// Warnings returns one message per failed symbol.
func (r *BasketResult) Warnings() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Warning())
	}
	return out
}

// ConversionRatio is local price over foreign price of a cross-listed share.
// Valid is false when either leg failed or the foreign price was zero.
type ConversionRatio struct {
	Pair    CrossListing   `json:"pair"`
	Date    time.Time      `json:"date"`
	Value   float64        `json:"value"`
	Valid   bool           `json:"valid"`
	Local   *TradingRecord `json:"local,omitempty"`
	Foreign *TradingRecord `json:"foreign,omitempty"`
}
