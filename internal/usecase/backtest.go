package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	"CrossBot/pkg/logger"
)

// BacktestParams overrides the configured strategy for one run. Zero values
// fall back to the base configuration.
type BacktestParams struct {
	Symbol    string
	Short     int
	Long      int
	From      time.Time
	To        time.Time
	Timeframe drepo.Timeframe
	Execution models.ExecutionMode
}

// BacktestUseCase fetches a date range and runs the pipeline over it.
type BacktestUseCase struct {
	provider drepo.MarketDataProvider
	base     models.StrategyConfig
	strategy string
	log      *logger.Logger
	metrics  drepo.Metrics
	timeout  time.Duration
	now      func() time.Time
}

func NewBacktestUseCase(
	provider drepo.MarketDataProvider,
	base models.StrategyConfig,
	strategyName string,
	log *logger.Logger,
	metrics drepo.Metrics,
) *BacktestUseCase {
	return &BacktestUseCase{
		provider: provider,
		base:     base,
		strategy: strategyName,
		log:      log,
		metrics:  metrics,
		timeout:  30 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolve merges p onto the base configuration and fills the date range.
func (uc *BacktestUseCase) Resolve(p BacktestParams) (models.StrategyConfig, BacktestParams) {
	cfg := uc.base
	if p.Symbol != "" {
		cfg.Symbol = strings.ToUpper(p.Symbol)
	}
	if p.Short > 0 {
		cfg.ShortWindow = p.Short
	}
	if p.Long > 0 {
		cfg.LongWindow = p.Long
	}
	if p.Execution != "" {
		cfg.Execution = p.Execution
	}
	if p.Timeframe == "" {
		p.Timeframe = drepo.NormalizeTimeframe(cfg.Timeframe)
	}
	cfg.Timeframe = string(p.Timeframe)
	if p.To.IsZero() {
		p.To = uc.now()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -cfg.HistoryWindowDays)
	}
	p.Symbol = cfg.Symbol
	return cfg, p
}

// Run returns the full report for the requested range.
func (uc *BacktestUseCase) Run(ctx context.Context, p BacktestParams) (*models.Report, error) {
	cfg, p := uc.Resolve(p)
	if !p.From.Before(p.To) {
		return nil, fmt.Errorf("%w: from %s is not before to %s", models.ErrInvalidConfig,
			p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	}
	pipe, err := NewPipeline(cfg, uc.strategy, uc.log, uc.metrics)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	series, err := fetchSeries(ctx, uc.provider, uc.metrics, cfg.Symbol, p.From, p.To, p.Timeframe)
	if errors.Is(err, models.ErrInsufficientData) {
		uc.log.Warn("provider returned no bars",
			logger.String("symbol", cfg.Symbol),
			logger.Time("from", p.From),
			logger.Time("to", p.To),
		)
		return pipe.WarmupReport(cfg.Symbol, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return pipe.Run(series)
}

// fetchSeries classifies provider errors: integrity and empty-history errors
// pass through, anything else is an upstream failure.
func fetchSeries(
	ctx context.Context,
	provider drepo.MarketDataProvider,
	metrics drepo.Metrics,
	symbol string,
	from, to time.Time,
	tf drepo.Timeframe,
) (models.TimeSeries, error) {
	start := time.Now()
	series, err := provider.GetHistoricalBars(ctx, symbol, from, to, tf)
	metrics.RecordLatency("fetch_bars", time.Since(start).Seconds())
	switch {
	case err == nil:
		return series, nil
	case errors.Is(err, models.ErrInsufficientData), errors.Is(err, models.ErrDataIntegrity):
		return models.TimeSeries{}, err
	case errors.Is(err, models.ErrUpstream):
		metrics.RecordError("provider")
		return models.TimeSeries{}, err
	default:
		metrics.RecordError("provider")
		return models.TimeSeries{}, fmt.Errorf("%w: %w", models.ErrUpstream, err)
	}
}
