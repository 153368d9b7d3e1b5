package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"CrossBot/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signals      *prometheus.CounterVec
	transactions *prometheus.CounterVec
	orders       *prometheus.CounterVec
	cumReturn    *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the crossbot collectors on reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossbot_signals_total",
				Help: "Signal records produced by the crossover generator",
			},
			[]string{"symbol"},
		),
		transactions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossbot_transactions_total",
				Help: "Detected crossover transactions by action",
			},
			[]string{"symbol", "action"},
		),
		orders: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossbot_order_intents_total",
				Help: "Order intents submitted to the broker gateway",
			},
			[]string{"symbol", "side"},
		),
		cumReturn: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crossbot_cumulative_return",
				Help: "Cumulative return of the last backtest",
			},
			[]string{"symbol", "kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossbot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crossbot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignals(symbol string, n int) {
	r.signals.WithLabelValues(symbol).Add(float64(n))
}

func (r *Recorder) RecordTransaction(symbol string, action models.Action) {
	r.transactions.WithLabelValues(symbol, string(action)).Inc()
}

func (r *Recorder) RecordOrderIntent(symbol string, side models.OrderSide) {
	r.orders.WithLabelValues(symbol, string(side)).Inc()
}

// RecordReturns stores the buy-and-hold and system cumulative returns.
func (r *Recorder) RecordReturns(symbol string, buyHold, system float64) {
	r.cumReturn.WithLabelValues(symbol, "buy_hold").Set(buyHold)
	r.cumReturn.WithLabelValues(symbol, "system").Set(system)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordSignals(string, int)                   {}
func (Nop) RecordTransaction(string, models.Action)    {}
func (Nop) RecordOrderIntent(string, models.OrderSide) {}
func (Nop) RecordReturns(string, float64, float64)      {}
func (Nop) RecordError(string)                          {}
func (Nop) RecordLatency(string, float64)               {}
