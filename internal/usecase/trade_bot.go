package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	"CrossBot/pkg/logger"
)

// TradeBot periodically re-evaluates the configured symbol and submits an
// order intent for each new crossover.
type TradeBot struct {
	provider drepo.MarketDataProvider
	gateway  drepo.BrokerGateway
	pipeline *Pipeline
	log      *logger.Logger
	metrics  drepo.Metrics
	now      func() time.Time

	mu        sync.Mutex
	lastActed time.Time
}

func NewTradeBot(
	provider drepo.MarketDataProvider,
	gateway drepo.BrokerGateway,
	pipeline *Pipeline,
	log *logger.Logger,
	metrics drepo.Metrics,
) *TradeBot {
	return &TradeBot{
		provider: provider,
		gateway:  gateway,
		pipeline: pipeline,
		log:      log.With(logger.String("component", "trade_bot")),
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Tick evaluates the latest history once. It returns the submitted intent or
// nil when there is nothing new to act on.
func (b *TradeBot) Tick(ctx context.Context) (*models.OrderIntent, error) {
	cfg := b.pipeline.Config()
	end := b.now()
	start := end.AddDate(0, 0, -cfg.HistoryWindowDays)

	series, err := fetchSeries(ctx, b.provider, b.metrics, cfg.Symbol, start, end, drepo.NormalizeTimeframe(cfg.Timeframe))
	if errors.Is(err, models.ErrInsufficientData) {
		b.log.Info("no bars yet", logger.String("symbol", cfg.Symbol))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	rep, err := b.pipeline.Run(series)
	if err != nil {
		return nil, err
	}
	if rep.Action == models.ActionHold {
		return nil, nil
	}
	tx, _ := rep.LatestTransaction()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !tx.Timestamp.After(b.lastActed) {
		b.log.Debug("crossover already acted on",
			logger.String("symbol", cfg.Symbol),
			logger.Time("at", tx.Timestamp),
		)
		return nil, nil
	}

	intent, ok := models.NewOrderIntent(cfg.Symbol, rep.Action, cfg.Quantity, tx.Timestamp)
	if !ok {
		return nil, nil
	}
	if err := b.gateway.Submit(ctx, intent); err != nil {
		b.metrics.RecordError("broker")
		b.log.Error("order submit failed",
			logger.String("symbol", cfg.Symbol),
			logger.String("side", string(intent.Side)),
			logger.Error(err),
		)
		return nil, fmt.Errorf("submit order: %w", err)
	}
	b.lastActed = tx.Timestamp
	b.metrics.RecordOrderIntent(cfg.Symbol, intent.Side)
	b.log.Info("order intent submitted",
		logger.String("id", intent.ID),
		logger.String("symbol", intent.Symbol),
		logger.String("side", string(intent.Side)),
		logger.String("qty", intent.Quantity.String()),
		logger.Time("signal_at", intent.SignalAt),
	)
	return &intent, nil
}

// Run ticks immediately and then on every interval until ctx is done.
// Tick errors are logged and do not stop the loop.
func (b *TradeBot) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: bot interval must be positive", models.ErrInvalidConfig)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := b.Tick(ctx); err != nil {
			b.log.Error("tick failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
