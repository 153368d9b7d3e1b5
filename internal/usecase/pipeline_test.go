package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"CrossBot/internal/domain/models"
	"CrossBot/pkg/logger"
	"CrossBot/pkg/metrics"
)

func TestPipelineRegressionFixture(t *testing.T) {
	rep, err := newPipeline(t, testConfig(3, 5)).Run(mkSeries(t, regressionCloses))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Warmup {
		t.Fatalf("did not expect warm-up")
	}
	if len(rep.Signals) != 15 || len(rep.Transactions) != 14 {
		t.Fatalf("expected 15 signals and 14 transactions, got %d/%d", len(rep.Signals), len(rep.Transactions))
	}
	// the series ends flat after the bearish cross at bar 12
	if rep.Action != models.ActionHold {
		t.Fatalf("expected HOLD, got %s", rep.Action)
	}
	if rep.Strategy != "ma_crossover" || rep.Bars != 20 {
		t.Fatalf("unexpected report header %+v", rep)
	}
	if len(rep.Returns.Points) != 15 {
		t.Fatalf("expected 15 return points, got %d", len(rep.Returns.Points))
	}
}

func TestPipelineBuyOnCrossBar(t *testing.T) {
	rep, err := newPipeline(t, testConfig(3, 5)).Run(mkSeries(t, dipCloses[:10]))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Action != models.ActionBuy {
		t.Fatalf("expected BUY, got %s", rep.Action)
	}
	tx, ok := rep.LatestTransaction()
	if !ok || tx.Index != 9 || tx.Delta != 2 {
		t.Fatalf("unexpected latest transaction %+v", tx)
	}
}

func TestPipelineWarmup(t *testing.T) {
	rep, err := newPipeline(t, testConfig(3, 5)).Run(mkSeries(t, regressionCloses[:5]))
	if err != nil {
		t.Fatalf("warm-up must not surface an error: %v", err)
	}
	if !rep.Warmup || rep.Action != models.ActionHold {
		t.Fatalf("expected warm-up HOLD report, got %+v", rep)
	}
	if len(rep.Signals) != 0 || len(rep.Transactions) != 0 || len(rep.Returns.Points) != 0 {
		t.Fatalf("expected empty sequences")
	}
	if rep.Returns.SystemReturn != 0 || rep.Returns.BuyHoldReturn != 0 {
		t.Fatalf("expected zero returns")
	}
}

func TestPipelineSingleSignalHolds(t *testing.T) {
	rep, err := newPipeline(t, testConfig(3, 5)).Run(mkSeries(t, regressionCloses[:6]))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rep.Warmup || len(rep.Signals) != 1 || rep.Action != models.ActionHold {
		t.Fatalf("a lone signal must report a provisional hold, got %+v", rep)
	}
}

func TestPipelineInvalidConfig(t *testing.T) {
	for _, w := range [][2]int{{10, 5}, {5, 5}, {0, 5}} {
		_, err := NewPipeline(testConfig(w[0], w[1]), "", logger.NewNop(), metrics.Nop{})
		if !errors.Is(err, models.ErrInvalidConfig) {
			t.Fatalf("windows %v: expected ErrInvalidConfig, got %v", w, err)
		}
	}
	if _, err := NewPipeline(testConfig(3, 5), "rsi", logger.NewNop(), metrics.Nop{}); !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown strategy, got %v", err)
	}
}

func TestPipelineInvalidPrice(t *testing.T) {
	closes := append([]float64(nil), regressionCloses...)
	closes[15] = 0
	rep, err := newPipeline(t, testConfig(3, 5)).Run(mkSeries(t, closes))
	if !errors.Is(err, models.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if rep != nil {
		t.Fatalf("expected no partial report")
	}
}

func TestPipelineIdempotent(t *testing.T) {
	p := newPipeline(t, testConfig(3, 5))
	series := mkSeries(t, regressionCloses)

	first, err := p.Run(series)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := p.Run(series)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("reports differ between runs")
	}
}
