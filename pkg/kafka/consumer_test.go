package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"CrossBot/pkg/logger"
)

type flakyHandler struct {
	failures int
	calls    int
	err      error
}

func (h *flakyHandler) Topic() string { return "test" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return h.err
	}
	return nil
}

func TestHandleWithRetryRecovers(t *testing.T) {
	h := &flakyHandler{failures: 2, err: errors.New("broker busy")}
	attempts, err := handleWithRetry(context.Background(), h, nil, 3, time.Millisecond, 2*time.Millisecond)
	if err != nil || attempts != 3 {
		t.Fatalf("expected success on third attempt, got attempts=%d err=%v", attempts, err)
	}
}

func TestHandleWithRetryExhausts(t *testing.T) {
	h := &flakyHandler{failures: 10, err: errors.New("down")}
	attempts, err := handleWithRetry(context.Background(), h, nil, 2, time.Millisecond, time.Millisecond)
	if err == nil || attempts != 3 {
		t.Fatalf("expected 3 attempts and an error, got attempts=%d err=%v", attempts, err)
	}
}

func TestHandleWithRetrySkipsPermanent(t *testing.T) {
	h := &flakyHandler{failures: 10, err: fmt.Errorf("decode: %w", ErrPermanent)}
	attempts, err := handleWithRetry(context.Background(), h, nil, 5, time.Millisecond, time.Millisecond)
	if !errors.Is(err, ErrPermanent) || attempts != 1 {
		t.Fatalf("expected a single attempt, got attempts=%d err=%v", attempts, err)
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		if d <= 0 || d > 100*time.Millisecond {
			t.Fatalf("attempt %d: backoff %s out of range", attempt, d)
		}
	}
}

// memReader serves queued messages and cancels the run once drained.
type memReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *memReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *memReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *memReader) Close() error { return nil }

type memWriter struct {
	failures int
	calls    int
	written  []kafka.Message
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("dlq unavailable")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

// valueHandler fails the first `failures` calls for one payload only.
type valueHandler struct {
	bad      string
	failures int
	err      error
	seen     []string
}

func (h *valueHandler) Topic() string { return "orders" }

func (h *valueHandler) Handle(_ context.Context, data []byte) error {
	h.seen = append(h.seen, string(data))
	if string(data) == h.bad && h.failures > 0 {
		h.failures--
		return h.err
	}
	return nil
}

func runConsumer(t *testing.T, h MessageHandler, dlq messageWriter, values ...string) *memReader {
	t.Helper()
	initConsumerMetricsOnce()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := &memReader{cancel: cancel}
	for i, v := range values {
		r.queue = append(r.queue, kafka.Message{Topic: "orders", Offset: int64(i), Value: []byte(v)})
	}
	c := &Consumer{
		cfg:     &ConsumerConfig{RetryMax: 1, BackoffMin: time.Millisecond, BackoffMax: time.Millisecond, DLQTopic: "orders.dlq"},
		handler: h,
		reader:  r,
		log:     logger.NewNop(),
	}
	if dlq != nil {
		c.dlq = dlq
	}
	c.wg.Add(1)
	c.loop(ctx)
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatal("consumer did not drain the queue")
	}
	return r
}

func TestConsumerHoldsFailedMessageUntilHandled(t *testing.T) {
	h := &valueHandler{bad: "a", failures: 5, err: errors.New("broker down")}
	r := runConsumer(t, h, nil, "a", "b")

	if len(r.committed) != 2 || r.committed[0] != 0 || r.committed[1] != 1 {
		t.Fatalf("expected offsets 0 then 1 committed, got %v", r.committed)
	}
	// "a" fails five times and succeeds on the sixth call before "b" is fetched
	want := []string{"a", "a", "a", "a", "a", "a", "b"}
	if fmt.Sprint(h.seen) != fmt.Sprint(want) {
		t.Fatalf("unexpected handling order %v", h.seen)
	}
}

func TestConsumerCommitsOnlyAfterDLQWrite(t *testing.T) {
	h := &valueHandler{bad: "a", failures: 100, err: errors.New("rejected")}
	w := &memWriter{failures: 2}
	r := runConsumer(t, h, w, "a", "b")

	if w.calls != 3 || len(w.written) != 1 || string(w.written[0].Value) != "a" {
		t.Fatalf("expected one parked message after 3 writes, got calls=%d written=%d", w.calls, len(w.written))
	}
	if len(r.committed) != 2 || r.committed[0] != 0 {
		t.Fatalf("unexpected commits %v", r.committed)
	}
}

func TestConsumerDropsPermanentFailureWithoutDLQ(t *testing.T) {
	h := &valueHandler{bad: "junk", failures: 100, err: fmt.Errorf("decode: %w", ErrPermanent)}
	r := runConsumer(t, h, nil, "junk", "b")

	if len(r.committed) != 2 {
		t.Fatalf("expected both offsets committed, got %v", r.committed)
	}
	if len(h.seen) != 2 {
		t.Fatalf("permanent failure must not be retried, saw %v", h.seen)
	}
}
