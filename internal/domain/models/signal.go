package models

import "time"

// Position is the discrete crossover state of one bar.
type Position int8

const (
	Bearish Position = -1
	Neutral Position = 0
	Bullish Position = 1
)

func (p Position) String() string {
	switch p {
	case Bearish:
		return "bearish"
	case Bullish:
		return "bullish"
	default:
		return "neutral"
	}
}

// SignalRecord is the crossover state of one bar once both averages are defined.
// Index is the bar's position in the source TimeSeries.
type SignalRecord struct {
	Timestamp time.Time `json:"t"`
	Index     int       `json:"index"`
	ShortAvg  float64   `json:"short_avg"`
	LongAvg   float64   `json:"long_avg"`
	Signal    Position  `json:"signal"`
}

// Action is an order decision derived from a transaction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// TransactionRecord holds delta = signal[t] - signal[t-1] for one bar.
type TransactionRecord struct {
	Timestamp time.Time `json:"t"`
	Index     int       `json:"index"`
	Delta     int       `json:"delta"`
}

// Action classifies the delta: +2 is a bullish cross, -2 a bearish cross.
// Partial moves through neutral are not actionable.
func (r TransactionRecord) Action() Action {
	switch r.Delta {
	case 2:
		return ActionBuy
	case -2:
		return ActionSell
	default:
		return ActionHold
	}
}
