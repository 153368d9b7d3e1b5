package models

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Bar is one OHLCV record of a daily (or coarser) price series.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    int64     `json:"v"`
}

// TimeSeries is an ordered, gap-checked snapshot of bars for one symbol.
// Build it with NewTimeSeries; the zero value is an empty series.
type TimeSeries struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Bars      []Bar  `json:"bars"`
}

// NewTimeSeries copies bars and checks the series invariants:
// at least one bar and strictly increasing timestamps.
func NewTimeSeries(symbol, timeframe string, bars []Bar) (TimeSeries, error) {
	if len(bars) == 0 {
		return TimeSeries{}, fmt.Errorf("%w: no bars for %s", ErrInsufficientData, symbol)
	}
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Timestamp, bars[i].Timestamp
		if !cur.After(prev) {
			return TimeSeries{}, fmt.Errorf("%w: %s bar %d at %s does not follow %s",
				ErrDataIntegrity, symbol, i, cur.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
	}
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	return TimeSeries{Symbol: symbol, Timeframe: timeframe, Bars: cp}, nil
}

// Len returns the number of bars.
func (s TimeSeries) Len() int { return len(s.Bars) }

// Closes returns the close prices in bar order.
func (s TimeSeries) Closes() []float64 {
	return lo.Map(s.Bars, func(b Bar, _ int) float64 { return b.Close })
}

// First returns the oldest bar. It panics on an empty series.
func (s TimeSeries) First() Bar { return s.Bars[0] }

// Last returns the newest bar. It panics on an empty series.
func (s TimeSeries) Last() Bar { return s.Bars[len(s.Bars)-1] }

// IndexOf finds the bar with timestamp ts using binary search.
func (s TimeSeries) IndexOf(ts time.Time) (int, bool) {
	left, right := 0, len(s.Bars)
	for left < right {
		mid := int(uint(left+right) >> 1)
		if s.Bars[mid].Timestamp.Before(ts) {
			left = mid + 1
		} else {
			right = mid
		}
	}
	if left < len(s.Bars) && s.Bars[left].Timestamp.Equal(ts) {
		return left, true
	}
	return -1, false
}
