package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	"CrossBot/pkg/logger"
	"CrossBot/pkg/metrics"
)

func newBacktest(prov *fakeProvider) *BacktestUseCase {
	uc := NewBacktestUseCase(prov, testConfig(20, 50), "", logger.NewNop(), metrics.Nop{})
	uc.now = func() time.Time { return seriesStart.AddDate(0, 0, 30) }
	return uc
}

func TestBacktestParamsOverrideBase(t *testing.T) {
	prov := &fakeProvider{bars: mkBars(regressionCloses)}
	rep, err := newBacktest(prov).Run(context.Background(), BacktestParams{
		Symbol: "test", Short: 3, Long: 5, Execution: models.ExecutionPriorBar,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.ShortWindow != 3 || rep.LongWindow != 5 || rep.Symbol != "TEST" {
		t.Fatalf("unexpected report header %+v", rep)
	}
	if rep.Returns.Execution != models.ExecutionPriorBar {
		t.Fatalf("expected prior-bar execution, got %s", rep.Returns.Execution)
	}
}

func TestBacktestResolveDefaults(t *testing.T) {
	uc := newBacktest(&fakeProvider{})
	cfg, p := uc.Resolve(BacktestParams{})
	if cfg.ShortWindow != 20 || cfg.LongWindow != 50 || p.Timeframe != drepo.TF1Day {
		t.Fatalf("unexpected resolved config %+v %+v", cfg, p)
	}
	if !p.From.Equal(p.To.AddDate(0, 0, -365)) {
		t.Fatalf("expected a 365 day window, got %s..%s", p.From, p.To)
	}
}

func TestBacktestRangeFilter(t *testing.T) {
	prov := &fakeProvider{bars: mkBars(regressionCloses)}
	rep, err := newBacktest(prov).Run(context.Background(), BacktestParams{
		Short: 3, Long: 5,
		From: seriesStart, To: seriesStart.AddDate(0, 0, 9),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Bars != 10 || len(rep.Signals) != 5 {
		t.Fatalf("expected 10 bars and 5 signals, got %d/%d", rep.Bars, len(rep.Signals))
	}
}

func TestBacktestEmptyHistoryIsWarmup(t *testing.T) {
	rep, err := newBacktest(&fakeProvider{}).Run(context.Background(), BacktestParams{Short: 3, Long: 5})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rep.Warmup || rep.Bars != 0 || rep.Action != models.ActionHold {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestBacktestErrors(t *testing.T) {
	uc := newBacktest(&fakeProvider{bars: mkBars(regressionCloses)})
	if _, err := uc.Run(context.Background(), BacktestParams{Short: 9, Long: 5}); !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	_, err := uc.Run(context.Background(), BacktestParams{
		Short: 3, Long: 5, From: seriesStart.AddDate(0, 0, 5), To: seriesStart,
	})
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for reversed range, got %v", err)
	}

	integrity := newBacktest(&fakeProvider{err: models.ErrDataIntegrity})
	_, err = integrity.Run(context.Background(), BacktestParams{Short: 3, Long: 5})
	if !errors.Is(err, models.ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
	if errors.Is(err, models.ErrUpstream) {
		t.Fatalf("integrity errors must not be reported as upstream failures")
	}
}

func TestBarSync(t *testing.T) {
	src := &fakeProvider{bars: mkBars(regressionCloses)}
	store := &memoryStore{}
	sync := NewBarSync(src, store, logger.NewNop(), metrics.Nop{})

	n, err := sync.Sync(context.Background(), "TEST", seriesStart, seriesStart.AddDate(0, 0, 30), drepo.TF1Day)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 20 || len(store.stored) != 1 || store.stored[0].Len() != 20 {
		t.Fatalf("expected 20 bars stored, got n=%d stored=%d", n, len(store.stored))
	}

	n, err = NewBarSync(&fakeProvider{}, store, logger.NewNop(), metrics.Nop{}).
		Sync(context.Background(), "TEST", seriesStart, seriesStart.AddDate(0, 0, 30), drepo.TF1Day)
	if err != nil || n != 0 {
		t.Fatalf("empty source: n=%d err=%v", n, err)
	}
}
