// Package backtest turns a signal sequence into log returns and compounded
// buy-and-hold vs. strategy performance.
package backtest

import (
	"fmt"
	"math"

	"CrossBot/internal/domain/models"
	"CrossBot/internal/services/features"
)

// Option configures Evaluate.
type Option func(*options)

type options struct {
	execution models.ExecutionMode
}

// WithExecution selects same-bar (default) or prior-bar signal application.
func WithExecution(mode models.ExecutionMode) Option {
	return func(o *options) {
		if mode != "" {
			o.execution = mode
		}
	}
}

// Evaluate backtests signals over the bars where a signal is defined.
//
// The position held during bar t is signal[t] in same-bar mode and
// signal[t-1] in prior-bar mode (neutral on the first evaluated bar).
// Returns accumulate in log space; cum = exp(sum) - 1.
func Evaluate(series models.TimeSeries, signals []models.SignalRecord, opts ...Option) (models.ReturnSeries, error) {
	o := options{execution: models.ExecutionSameBar}
	for _, opt := range opts {
		opt(&o)
	}
	switch o.execution {
	case models.ExecutionSameBar, models.ExecutionPriorBar:
	default:
		return models.ReturnSeries{}, fmt.Errorf("%w: unknown execution mode %q", models.ErrInvalidConfig, o.execution)
	}

	closes := series.Closes()
	rets, err := features.ComputeLogReturns(closes)
	if err != nil {
		return models.ReturnSeries{}, err
	}

	rs := models.ReturnSeries{
		Execution: o.execution,
		Points:    make([]models.ReturnPoint, 0, len(signals)),
	}
	if len(signals) == 0 {
		return rs, nil
	}

	var (
		sumBH, sumSys float64
		prevSignal    = models.Neutral
		prevIndex     = -1
	)
	for i, sig := range signals {
		idx, ok := series.IndexOf(sig.Timestamp)
		if !ok {
			return models.ReturnSeries{}, fmt.Errorf("%w: signal at %s not in series",
				models.ErrDataIntegrity, sig.Timestamp.Format("2006-01-02"))
		}
		if idx == 0 || idx <= prevIndex {
			return models.ReturnSeries{}, fmt.Errorf("%w: signal at bar %d has no preceding bar or is out of order",
				models.ErrDataIntegrity, idx)
		}
		prevIndex = idx

		pos := sig.Signal
		if o.execution == models.ExecutionPriorBar {
			pos = models.Neutral
			if i > 0 {
				pos = prevSignal
			}
		}
		prevSignal = sig.Signal

		lr := rets[idx-1]
		sys := lr * float64(pos)
		sumBH += lr
		sumSys += sys

		rs.Points = append(rs.Points, models.ReturnPoint{
			Timestamp:       sig.Timestamp,
			Close:           closes[idx],
			Signal:          sig.Signal,
			Position:        pos,
			LogReturn:       lr,
			SystemLogReturn: sys,
			CumBuyHold:      compound(sumBH),
			CumSystem:       compound(sumSys),
		})
	}

	last := rs.Points[len(rs.Points)-1]
	rs.BuyHoldReturn = last.CumBuyHold
	rs.SystemReturn = last.CumSystem
	rs.Summary = summarize(rs, signals)
	return rs, nil
}

// compound maps a log-space sum back to a simple return. A zero sum maps to
// exactly zero.
func compound(logSum float64) float64 {
	if logSum == 0 {
		return 0
	}
	return math.Expm1(logSum)
}
