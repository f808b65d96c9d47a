package model

import "errors"

// Resolution failures
var (
	ErrNoDataInWindow  = errors.New("no trading data in lookback window")
	ErrFieldExtraction = errors.New("price or volume field missing")
	ErrTransport       = errors.New("market data request failed")
)

// Report errors
var (
	ErrRatioUnavailable = errors.New("conversion ratio unavailable")
	ErrFutureDate       = errors.New("date is in the future")
	ErrNoDates          = errors.New("at least one date is required")
	ErrTooManyDates     = errors.New("at most two dates are supported")
)
