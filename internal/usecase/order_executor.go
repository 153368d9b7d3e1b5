package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	"CrossBot/pkg/kafka"
	"CrossBot/pkg/logger"
)

// OrderExecutor consumes order intents published by a bot running with the
// Kafka gateway and forwards them to a live broker.
type OrderExecutor struct {
	topic   string
	broker  drepo.BrokerGateway
	log     *logger.Logger
	metrics drepo.Metrics
}

var _ kafka.MessageHandler = (*OrderExecutor)(nil)

func NewOrderExecutor(topic string, broker drepo.BrokerGateway, log *logger.Logger, metrics drepo.Metrics) *OrderExecutor {
	return &OrderExecutor{topic: topic, broker: broker, log: log, metrics: metrics}
}

func (e *OrderExecutor) Topic() string { return e.topic }

func (e *OrderExecutor) Handle(ctx context.Context, data []byte) error {
	var intent models.OrderIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		e.metrics.RecordError("decode_intent")
		return fmt.Errorf("%w: decode order intent: %v", kafka.ErrPermanent, err)
	}
	if intent.Symbol == "" || intent.ID == "" || !intent.Quantity.IsPositive() {
		e.metrics.RecordError("decode_intent")
		return fmt.Errorf("%w: incomplete order intent %q", kafka.ErrPermanent, intent.ID)
	}
	switch intent.Side {
	case models.SideBuy, models.SideSell:
	default:
		return fmt.Errorf("%w: unknown side %q", kafka.ErrPermanent, intent.Side)
	}

	if err := e.broker.Submit(ctx, intent); err != nil {
		e.metrics.RecordError("broker")
		return err
	}
	e.metrics.RecordOrderIntent(intent.Symbol, intent.Side)
	e.log.Info("order intent executed",
		logger.String("id", intent.ID),
		logger.String("symbol", intent.Symbol),
		logger.String("side", string(intent.Side)),
	)
	return nil
}
