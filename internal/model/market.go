package model

import (
	"math"
	"time"
)

// Field names a column of a provider row.
type Field string

const (
	FieldOpen     Field = "open"
	FieldHigh     Field = "high"
	FieldLow      Field = "low"
	FieldClose    Field = "close"
	FieldAdjClose Field = "adjclose"
	FieldVolume   Field = "volume"
)

// PriceFields is the lookup order for a record's price: adjustment-aware first.
var PriceFields = []Field{FieldAdjClose, FieldClose}

// Bar is one daily row returned by a provider. Values the provider did not
// report are absent from Fields rather than stored as zero.
type Bar struct {
	Date   time.Time
	Fields map[Field]float64
}

// NewBar builds a Bar dated on the calendar day of t.
func NewBar(t time.Time, fields map[Field]float64) Bar {
	if fields == nil {
		fields = map[Field]float64{}
	}
	return Bar{Date: CalendarDate(t), Fields: fields}
}

// Lookup returns the first of fields holding a usable value
// (finite and not negative).
func (b Bar) Lookup(fields ...Field) (Field, float64, bool) {
	for _, f := range fields {
		v, ok := b.Fields[f]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		return f, v, true
	}
	return "", 0, false
}

// TradingRecord is the resolution of one symbol for one target date.
type TradingRecord struct {
	Symbol     string    `json:"symbol"`
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
	PriceField Field     `json:"price_field"`
}

// DollarVolume is price times volume for this record.
func (r TradingRecord) DollarVolume() float64 {
	return r.Price * r.Volume
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
// All dates in the model are held in this form.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(t), nil
}
