package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"CrossBot/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic in a consumer group and hands every message to a
// handler in partition order. A message is committed only after the handler
// succeeds or it has been parked in the DLQ; until then it holds its place,
// because committing a later offset would skip it for the whole group.
type Consumer struct {
	cfg      *ConsumerConfig
	handler  MessageHandler
	reader   messageReader
	dlq      messageWriter
	log      *logger.Logger
	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NewConsumer creates a consumer for handler.Topic().
func NewConsumer(handler MessageHandler, log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:    "crossbot",
		RetryMax:   3,
		BackoffMin: 50 * time.Millisecond,
		BackoffMax: 2 * time.Second,
		MinBytes:   1,
		MaxBytes:   10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:     cfg,
		handler: handler,
		log:     log.With(logger.String("topic", handler.Topic())),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    handler.Topic(),
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.LeastBytes{}}
	}
	initConsumerMetricsOnce()
	return c, nil
}

// Start begins consuming in the background.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.loop(ctx)
	c.log.Info("kafka consumer started", logger.String("group", c.cfg.GroupID))
}

// Stop cancels the read loop and waits for the in-flight message.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		done := make(chan struct{})
		go func() { c.wg.Wait(); close(done) }()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		case <-done:
		}
		if err := c.reader.Close(); err != nil {
			c.log.Warn("close reader", logger.Error(err))
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("close dlq writer", logger.Error(err))
			}
		}
	})
	return stopErr
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("fetch message", logger.Error(err))
			if !sleepCtx(ctx, c.cfg.BackoffMin) {
				return
			}
			continue
		}
		if !c.process(ctx, msg) {
			return
		}
	}
}

// process handles msg until it is committed. It returns false only when ctx
// ends first, leaving the offset uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	for {
		start := time.Now()
		attempts, err := handleWithRetry(ctx, c.handler, msg.Value, c.cfg.RetryMax, c.cfg.BackoffMin, c.cfg.BackoffMax)
		consumerHandleLatency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		if ctx.Err() != nil {
			return false
		}
		if err == nil || c.park(ctx, msg, attempts, err) {
			c.commit(ctx, msg)
			return true
		}
		if !sleepCtx(ctx, c.cfg.BackoffMax) {
			return false
		}
	}
}

// park moves a failed message out of the way. Without a DLQ only permanent
// failures are dropped, after logging the payload; transient ones stay put.
func (c *Consumer) park(ctx context.Context, msg kafka.Message, attempts int, cause error) bool {
	consumerFailures.WithLabelValues(msg.Topic).Inc()
	c.log.Error("message handling failed",
		logger.Int("partition", msg.Partition),
		logger.Int("offset", int(msg.Offset)),
		logger.Int("attempts", attempts),
		logger.Error(cause),
	)
	if c.dlq == nil {
		if errors.Is(cause, ErrPermanent) {
			c.log.Error("dropping unprocessable message", logger.String("payload", string(msg.Value)))
			return true
		}
		return false
	}
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.Topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.log.Error("dlq write failed", logger.String("dlq", c.cfg.DLQTopic), logger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		// redelivered after a rebalance; the executor sends a stable client order id
		c.log.Warn("commit offset", logger.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// handleWithRetry returns the number of attempts made and the last error.
func handleWithRetry(ctx context.Context, h MessageHandler, data []byte, retryMax int, backoffMin, backoffMax time.Duration) (int, error) {
	var err error
	attempts := 0
	for {
		attempts++
		err = h.Handle(ctx, data)
		if err == nil || attempts > retryMax || errors.Is(err, ErrPermanent) {
			return attempts, err
		}
		select {
		case <-time.After(backoffWithJitter(backoffMin, backoffMax, attempts)):
		case <-ctx.Done():
			return attempts, ctx.Err()
		}
	}
}

// ErrPermanent marks handler errors that retrying cannot fix, such as an
// undecodable payload.
var ErrPermanent = errors.New("permanent failure")

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max || exp <= 0 {
		exp = max
	}
	// jitter up to 50%
	if half := int64(exp) / 2; half > 0 {
		exp -= time.Duration(rand.Int63n(half))
	}
	return exp
}

var (
	consumerHandleLatency *prometheus.HistogramVec
	consumerFailures      *prometheus.CounterVec
	consumerOnce          sync.Once
)

func initConsumerMetricsOnce() {
	consumerOnce.Do(func() {
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "crossbot_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
		consumerFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "crossbot_kafka_consumer_failures_total", Help: "Messages that exhausted their retries"},
			[]string{"topic"},
		)
	})
}
