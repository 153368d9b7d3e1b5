package repository

import (
	"context"
	"time"

	"CrossBot/internal/domain/models"
)

// MarketDataProvider supplies validated daily bars. Implementations must return
// series built through models.NewTimeSeries.
type MarketDataProvider interface {
	GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time, tf Timeframe) (models.TimeSeries, error)
	GetLatestBar(ctx context.Context, symbol string, tf Timeframe) (models.Bar, error)
}

// BrokerGateway accepts order intents. Retry and confirmation belong to the gateway.
type BrokerGateway interface {
	Submit(ctx context.Context, intent models.OrderIntent) error
}

// BarStore persists bars synced from an upstream provider.
type BarStore interface {
	MarketDataProvider
	StoreBars(ctx context.Context, series models.TimeSeries) error
	Health(ctx context.Context) error
}

type Metrics interface {
	RecordSignals(symbol string, n int)
	RecordTransaction(symbol string, action models.Action)
	RecordOrderIntent(symbol string, side models.OrderSide)
	RecordReturns(symbol string, buyHold, system float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
