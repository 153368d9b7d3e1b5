package models

import "errors"

// Error taxonomy shared by the signal core and its adapters.
// ErrInsufficientData is advisory: callers recover it into an empty result.
var (
	ErrInvalidConfig    = errors.New("invalid config")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrDataIntegrity    = errors.New("data integrity error")

	// ErrUpstream marks failures of a market data provider or broker.
	ErrUpstream = errors.New("upstream unavailable")
)
