package models

import "time"

// ExecutionMode selects which bar's signal is held during a bar's return.
type ExecutionMode string

const (
	// ExecutionSameBar holds signal[t] during bar t.
	ExecutionSameBar ExecutionMode = "same_bar"
	// ExecutionPriorBar holds signal[t-1] during bar t, modelling a one-bar execution lag.
	ExecutionPriorBar ExecutionMode = "prior_bar"
)

// ReturnPoint is the per-bar row of a backtest.
type ReturnPoint struct {
	Timestamp       time.Time `json:"t"`
	Close           float64   `json:"close"`
	Signal          Position  `json:"signal"`
	Position        Position  `json:"position"`
	LogReturn       float64   `json:"log_return"`
	SystemLogReturn float64   `json:"system_log_return"`
	CumBuyHold      float64   `json:"cum_buyhold"`
	CumSystem       float64   `json:"cum_system"`
}

// BacktestSummary carries derived statistics of a ReturnSeries.
type BacktestSummary struct {
	Bars         int     `json:"bars"`
	Trades       int     `json:"trades"`
	Exposure     float64 `json:"exposure"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ExcessReturn float64 `json:"excess_return"`
}

// ReturnSeries is the backtest of one signal sequence against its series.
type ReturnSeries struct {
	Execution     ExecutionMode   `json:"execution"`
	Points        []ReturnPoint   `json:"points"`
	BuyHoldReturn float64         `json:"buyhold_return"`
	SystemReturn  float64         `json:"system_return"`
	Summary       BacktestSummary `json:"summary"`
}
