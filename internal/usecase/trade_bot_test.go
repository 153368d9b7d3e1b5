package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CrossBot/internal/domain/models"
	"CrossBot/pkg/logger"
	"CrossBot/pkg/metrics"
)

func newBot(t *testing.T, prov *fakeProvider, gw *fakeGateway, closes []float64) *TradeBot {
	t.Helper()
	bot := NewTradeBot(prov, gw, newPipeline(t, testConfig(3, 5)), logger.NewNop(), metrics.Nop{})
	bot.now = func() time.Time { return seriesStart.AddDate(0, 0, len(closes)-1) }
	return bot
}

func TestTradeBotSubmitsOncePerCrossover(t *testing.T) {
	closes := dipCloses[:10]
	prov := &fakeProvider{bars: mkBars(closes)}
	gw := &fakeGateway{}
	bot := newBot(t, prov, gw, closes)

	intent, err := bot.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if intent == nil || intent.Side != models.SideBuy || intent.Symbol != "TEST" {
		t.Fatalf("expected BUY intent, got %+v", intent)
	}
	if !intent.SignalAt.Equal(seriesStart.AddDate(0, 0, 9)) {
		t.Fatalf("unexpected signal time %s", intent.SignalAt)
	}
	if intent.Quantity.IntPart() != 10 || intent.OrderType != models.OrderTypeMarket || intent.TimeInForce != models.TimeInForceGTC {
		t.Fatalf("unexpected order fields %+v", intent)
	}

	again, err := bot.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if again != nil {
		t.Fatalf("same crossover submitted twice")
	}
	if n := len(gw.submitted()); n != 1 {
		t.Fatalf("expected one submission, got %d", n)
	}
}

func TestTradeBotHoldSubmitsNothing(t *testing.T) {
	prov := &fakeProvider{bars: mkBars(regressionCloses)}
	gw := &fakeGateway{}
	bot := newBot(t, prov, gw, regressionCloses)

	intent, err := bot.Tick(context.Background())
	if err != nil || intent != nil {
		t.Fatalf("expected no intent, got %+v err=%v", intent, err)
	}
	if len(gw.submitted()) != 0 {
		t.Fatalf("expected no submissions")
	}
}

func TestTradeBotRetriesAfterGatewayError(t *testing.T) {
	closes := dipCloses[:10]
	prov := &fakeProvider{bars: mkBars(closes)}
	gw := &fakeGateway{err: errBrokerDown}
	bot := newBot(t, prov, gw, closes)

	if _, err := bot.Tick(context.Background()); !errors.Is(err, errBrokerDown) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()
	intent, err := bot.Tick(context.Background())
	if err != nil || intent == nil {
		t.Fatalf("expected retry to submit, got %+v err=%v", intent, err)
	}
}

func TestTradeBotWarmupAndEmptyHistory(t *testing.T) {
	prov := &fakeProvider{}
	gw := &fakeGateway{}
	bot := newBot(t, prov, gw, dipCloses)

	if intent, err := bot.Tick(context.Background()); err != nil || intent != nil {
		t.Fatalf("empty history: intent=%+v err=%v", intent, err)
	}

	prov.setBars(mkBars(dipCloses[:4]))
	if intent, err := bot.Tick(context.Background()); err != nil || intent != nil {
		t.Fatalf("warm-up: intent=%+v err=%v", intent, err)
	}
}

func TestTradeBotProviderFailure(t *testing.T) {
	prov := &fakeProvider{err: errors.New("connection refused")}
	bot := newBot(t, prov, &fakeGateway{}, dipCloses)

	_, err := bot.Tick(context.Background())
	if !errors.Is(err, models.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestTradeBotRunStopsOnCancel(t *testing.T) {
	closes := dipCloses[:10]
	prov := &fakeProvider{bars: mkBars(closes)}
	gw := &fakeGateway{}
	bot := newBot(t, prov, gw, closes)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx, 10*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop after cancel")
	}
	if n := len(gw.submitted()); n != 1 {
		t.Fatalf("expected exactly one submission across ticks, got %d", n)
	}
}

func TestTradeBotRunRejectsBadInterval(t *testing.T) {
	bot := newBot(t, &fakeProvider{}, &fakeGateway{}, dipCloses)
	if err := bot.Run(context.Background(), 0); !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
