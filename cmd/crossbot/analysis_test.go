package main

import (
	"errors"
	"testing"
	"time"

	"CrossBot/internal/domain/models"
)

func TestRangeFlagsParams(t *testing.T) {
	f := rangeFlags{symbol: "aapl", short: 5, long: 10, from: "2024-01-01", to: "2024-03-01", timeframe: "1Week"}
	p, err := f.params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !p.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %s", p.From)
	}
	if p.To.Day() != 1 || p.To.Hour() != 23 {
		t.Fatalf("expected end of day for date-only to, got %s", p.To)
	}
	if p.Timeframe != "1Week" || p.Short != 5 || p.Long != 10 {
		t.Fatalf("unexpected params %+v", p)
	}

	f.from = "yesterday"
	if _, err := f.params(); !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBacktestSummaryCountsEvents(t *testing.T) {
	rep := &models.Report{
		Symbol: "SPY",
		Transactions: []models.TransactionRecord{
			{Delta: 0}, {Delta: 2}, {Delta: 0}, {Delta: -2},
		},
		Action: models.ActionSell,
	}
	s := backtestSummary(rep)
	if s.Transactions != 2 || s.Action != models.ActionSell {
		t.Fatalf("unexpected summary %+v", s)
	}
}
