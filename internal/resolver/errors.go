package resolver

import (
	"fmt"

	"ADRFlow/internal/metrics"
	"ADRFlow/internal/model"
)

// Error is a failed resolution. Kind is one of the model resolution
// sentinels, so errors.Is(err, model.ErrNoDataInWindow) works on it.
type Error struct {
	Symbol string
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Symbol, e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func outcome(kind error) string {
	switch kind {
	case model.ErrNoDataInWindow:
		return metrics.OutcomeNoData
	case model.ErrFieldExtraction:
		return metrics.OutcomeField
	default:
		return metrics.OutcomeTransport
	}
}
