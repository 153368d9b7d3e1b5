package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewOrderIntentIDIsStable(t *testing.T) {
	at := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	qty := decimal.NewFromInt(2)

	a, ok := NewOrderIntent("SPY", ActionBuy, qty, at)
	if !ok {
		t.Fatal("expected an intent for BUY")
	}
	b, _ := NewOrderIntent("SPY", ActionBuy, qty, at.In(time.FixedZone("EST", -5*3600)))
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("same crossover must keep its id: %q vs %q", a.ID, b.ID)
	}

	others := []OrderIntent{}
	for _, o := range []struct {
		symbol string
		action Action
		at     time.Time
	}{
		{"SPY", ActionBuy, at.AddDate(0, 0, 1)},
		{"SPY", ActionSell, at},
		{"QQQ", ActionBuy, at},
	} {
		intent, _ := NewOrderIntent(o.symbol, o.action, qty, o.at)
		others = append(others, intent)
	}
	for _, o := range others {
		if o.ID == a.ID {
			t.Fatalf("distinct crossover %s %s %s reused id %q", o.Symbol, o.Side, o.SignalAt, a.ID)
		}
	}
}

func TestNewOrderIntentHold(t *testing.T) {
	if _, ok := NewOrderIntent("SPY", ActionHold, decimal.NewFromInt(1), time.Now()); ok {
		t.Fatal("HOLD must not produce an intent")
	}
	intent, _ := NewOrderIntent("SPY", ActionSell, decimal.NewFromInt(1), time.Now())
	if intent.Side != SideSell || intent.OrderType != OrderTypeMarket || intent.TimeInForce != TimeInForceGTC {
		t.Fatalf("unexpected intent %+v", intent)
	}
}
