package repository

import (
	"context"
	"fmt"

	"CrossBot/internal/domain/models"
	domrepo "CrossBot/internal/domain/repository"
	applogger "CrossBot/pkg/logger"
)

// messagePublisher is the slice of pkg/kafka.Producer the gateway needs.
type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaOrderGateway publishes order intents keyed by symbol, so intents for
// one symbol stay ordered within a partition.
type KafkaOrderGateway struct {
	producer messagePublisher
	topic    string
}

var _ domrepo.BrokerGateway = (*KafkaOrderGateway)(nil)

func NewKafkaOrderGateway(producer messagePublisher, topic string) *KafkaOrderGateway {
	return &KafkaOrderGateway{producer: producer, topic: topic}
}

func (g *KafkaOrderGateway) Submit(ctx context.Context, intent models.OrderIntent) error {
	if err := g.producer.Publish(ctx, g.topic, []byte(intent.Symbol), intent); err != nil {
		return fmt.Errorf("%w: publish order intent: %w", models.ErrUpstream, err)
	}
	return nil
}

// DryRunGateway only logs intents.
type DryRunGateway struct {
	l *applogger.Logger
}

var _ domrepo.BrokerGateway = (*DryRunGateway)(nil)

func NewDryRunGateway(l *applogger.Logger) *DryRunGateway {
	return &DryRunGateway{l: l}
}

func (g *DryRunGateway) Submit(_ context.Context, intent models.OrderIntent) error {
	g.l.Info("dry run: order intent",
		applogger.String("id", intent.ID),
		applogger.String("symbol", intent.Symbol),
		applogger.String("side", string(intent.Side)),
		applogger.String("qty", intent.Quantity.String()),
		applogger.String("type", intent.OrderType),
		applogger.String("time_in_force", intent.TimeInForce),
		applogger.Time("signal_at", intent.SignalAt),
	)
	return nil
}
