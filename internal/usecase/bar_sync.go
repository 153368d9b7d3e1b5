package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	"CrossBot/pkg/logger"
)

// BarSync copies bars from an upstream provider into a BarStore.
type BarSync struct {
	source  drepo.MarketDataProvider
	store   drepo.BarStore
	log     *logger.Logger
	metrics drepo.Metrics
}

func NewBarSync(source drepo.MarketDataProvider, store drepo.BarStore, log *logger.Logger, metrics drepo.Metrics) *BarSync {
	return &BarSync{source: source, store: store, log: log, metrics: metrics}
}

// Sync returns the number of bars written.
func (s *BarSync) Sync(ctx context.Context, symbol string, start, end time.Time, tf drepo.Timeframe) (int, error) {
	series, err := fetchSeries(ctx, s.source, s.metrics, symbol, start, end, tf)
	if errors.Is(err, models.ErrInsufficientData) {
		s.log.Warn("nothing to sync", logger.String("symbol", symbol))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	begin := time.Now()
	if err := s.store.StoreBars(ctx, series); err != nil {
		s.metrics.RecordError("store")
		return 0, fmt.Errorf("store bars: %w", err)
	}
	s.metrics.RecordLatency("store_bars", time.Since(begin).Seconds())
	s.log.Info("bars synced",
		logger.String("symbol", symbol),
		logger.Int("bars", series.Len()),
		logger.Time("first", series.First().Timestamp),
		logger.Time("last", series.Last().Timestamp),
	)
	return series.Len(), nil
}
