package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order intent.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

const (
	OrderTypeMarket = "market"
	TimeInForceGTC  = "gtc"
)

// OrderIntent is what the bot hands to a broker gateway. Submission,
// confirmation and retries are the gateway's concern.
type OrderIntent struct {
	ID          string          `json:"client_order_id"`
	Symbol      string          `json:"symbol"`
	Side        OrderSide       `json:"side"`
	Quantity    decimal.Decimal `json:"qty"`
	OrderType   string          `json:"type"`
	TimeInForce string          `json:"time_in_force"`
	Reason      string          `json:"reason,omitempty"`
	SignalAt    time.Time       `json:"signal_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewOrderIntent builds a market GTC intent for a BUY or SELL action.
// It returns false for HOLD. The ID is derived from symbol, side and signal
// bar, so a resubmitted intent carries the same broker client order id.
func NewOrderIntent(symbol string, action Action, qty decimal.Decimal, signalAt time.Time) (OrderIntent, bool) {
	var side OrderSide
	switch action {
	case ActionBuy:
		side = SideBuy
	case ActionSell:
		side = SideSell
	default:
		return OrderIntent{}, false
	}
	return OrderIntent{
		ID:          IntentID(symbol, side, signalAt),
		Symbol:      symbol,
		Side:        side,
		Quantity:    qty,
		OrderType:   OrderTypeMarket,
		TimeInForce: TimeInForceGTC,
		Reason:      "ma crossover " + string(action),
		SignalAt:    signalAt,
		CreatedAt:   time.Now().UTC(),
	}, true
}

// IntentID is the name-based UUID of one crossover on one symbol.
func IntentID(symbol string, side OrderSide, signalAt time.Time) string {
	name := symbol + "|" + string(side) + "|" + signalAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
