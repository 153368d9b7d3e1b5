package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	"CrossBot/pkg/logger"
	"CrossBot/pkg/metrics"
)

var regressionCloses = []float64{10, 10, 10, 10, 12, 14, 16, 18, 20, 18, 16, 14, 12, 10, 10, 10, 10, 10, 10, 10}

var dipCloses = []float64{20, 18, 16, 14, 12, 10, 10, 12, 14, 16, 18, 20, 20, 20}

var seriesStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func mkBars(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Timestamp: seriesStart.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return bars
}

func mkSeries(t *testing.T, closes []float64) models.TimeSeries {
	t.Helper()
	s, err := models.NewTimeSeries("TEST", "1Day", mkBars(closes))
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func testConfig(short, long int) models.StrategyConfig {
	return models.StrategyConfig{
		Symbol:            "TEST",
		ShortWindow:       short,
		LongWindow:        long,
		HistoryWindowDays: 365,
		Timeframe:         "1Day",
		Execution:         models.ExecutionSameBar,
		Quantity:          decimal.NewFromInt(10),
	}
}

// fakeProvider serves a fixed bar slice filtered to the requested range.
type fakeProvider struct {
	mu    sync.Mutex
	bars  []models.Bar
	err   error
	calls int
}

func (p *fakeProvider) GetHistoricalBars(_ context.Context, symbol string, start, end time.Time, tf drepo.Timeframe) (models.TimeSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return models.TimeSeries{}, p.err
	}
	var out []models.Bar
	for _, b := range p.bars {
		if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			out = append(out, b)
		}
	}
	return models.NewTimeSeries(symbol, string(tf), out)
}

func (p *fakeProvider) GetLatestBar(_ context.Context, _ string, _ drepo.Timeframe) (models.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.bars) == 0 {
		return models.Bar{}, models.ErrInsufficientData
	}
	return p.bars[len(p.bars)-1], nil
}

func (p *fakeProvider) setBars(bars []models.Bar) {
	p.mu.Lock()
	p.bars = bars
	p.mu.Unlock()
}

type fakeGateway struct {
	mu      sync.Mutex
	intents []models.OrderIntent
	err     error
}

func (g *fakeGateway) Submit(_ context.Context, intent models.OrderIntent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.intents = append(g.intents, intent)
	return nil
}

func (g *fakeGateway) submitted() []models.OrderIntent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.OrderIntent(nil), g.intents...)
}

type memoryStore struct {
	fakeProvider
	stored []models.TimeSeries
}

func (s *memoryStore) StoreBars(_ context.Context, series models.TimeSeries) error {
	s.stored = append(s.stored, series)
	return nil
}

func (s *memoryStore) Health(context.Context) error { return nil }

var errBrokerDown = errors.New("broker down")

func newPipeline(t *testing.T, cfg models.StrategyConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, "", logger.NewNop(), metrics.Nop{})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}
