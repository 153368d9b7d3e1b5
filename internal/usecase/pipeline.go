package usecase

import (
	"errors"
	"fmt"
	"time"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	domsvc "CrossBot/internal/domain/service"
	"CrossBot/internal/services/backtest"
	"CrossBot/internal/services/strategy"
	"CrossBot/pkg/logger"
)

// Pipeline runs generator, detector, backtest and interpreter in that order
// over one series snapshot. It holds no mutable state between runs.
type Pipeline struct {
	cfg      models.StrategyConfig
	strategy domsvc.SignalStrategy
	log      *logger.Logger
	metrics  drepo.Metrics
}

// NewPipeline validates cfg and builds the named strategy for its windows.
func NewPipeline(cfg models.StrategyConfig, name string, log *logger.Logger, metrics drepo.Metrics) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategy.Build(name, cfg.ShortWindow, cfg.LongWindow)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, strategy: strat, log: log, metrics: metrics}, nil
}

// Config returns the strategy parameters this pipeline was built with.
func (p *Pipeline) Config() models.StrategyConfig { return p.cfg }

// Run evaluates series. Insufficient history is not an error: the report is
// marked as warm-up with empty sequences and a HOLD action.
func (p *Pipeline) Run(series models.TimeSeries) (*models.Report, error) {
	start := time.Now()
	defer func() { p.metrics.RecordLatency("pipeline", time.Since(start).Seconds()) }()

	exec := p.cfg.ExecutionOrDefault()
	rep := p.emptyReport(series.Symbol, series.Len())

	signals, err := p.strategy.Generate(series)
	if errors.Is(err, models.ErrInsufficientData) {
		p.log.Info("warm-up: not enough bars for a signal",
			logger.String("symbol", series.Symbol),
			logger.Int("bars", series.Len()),
			logger.Int("long_window", p.cfg.LongWindow),
		)
		return rep, nil
	}
	if err != nil {
		p.metrics.RecordError("signal")
		return nil, fmt.Errorf("generate signals: %w", err)
	}
	rep.Warmup = false
	rep.Signals = signals
	p.metrics.RecordSignals(series.Symbol, len(signals))

	rep.Transactions = strategy.Detect(signals)
	for _, tx := range strategy.Events(rep.Transactions) {
		p.log.Debug("transaction detected",
			logger.String("symbol", series.Symbol),
			logger.Time("at", tx.Timestamp),
			logger.Int("delta", tx.Delta),
			logger.String("action", string(tx.Action())),
		)
		p.metrics.RecordTransaction(series.Symbol, tx.Action())
	}

	rs, err := backtest.Evaluate(series, signals, backtest.WithExecution(exec))
	if err != nil {
		p.metrics.RecordError("backtest")
		return nil, fmt.Errorf("evaluate returns: %w", err)
	}
	rep.Returns = rs
	p.metrics.RecordReturns(series.Symbol, rs.BuyHoldReturn, rs.SystemReturn)

	action, err := strategy.LatestAction(rep.Transactions)
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		// one signal and no transaction yet: HOLD is provisional
		rep.Warmup = true
		p.log.Debug("no transaction yet",
			logger.String("symbol", series.Symbol),
			logger.Int("signals", len(signals)),
		)
	case err != nil:
		return nil, fmt.Errorf("interpret transactions: %w", err)
	}
	rep.Action = action

	p.log.Info("action decided",
		logger.String("symbol", series.Symbol),
		logger.String("action", string(action)),
		logger.Bool("warmup", rep.Warmup),
		logger.Time("as_of", series.Last().Timestamp),
		logger.Float64("buyhold_return", rs.BuyHoldReturn),
		logger.Float64("system_return", rs.SystemReturn),
	)
	return rep, nil
}

// WarmupReport is the result for a symbol without enough bars, including
// one whose provider returned no bars at all.
func (p *Pipeline) WarmupReport(symbol string, bars int) *models.Report {
	return p.emptyReport(symbol, bars)
}

func (p *Pipeline) emptyReport(symbol string, bars int) *models.Report {
	return &models.Report{
		Symbol:       symbol,
		Strategy:     p.strategy.Name(),
		ShortWindow:  p.cfg.ShortWindow,
		LongWindow:   p.cfg.LongWindow,
		Bars:         bars,
		Warmup:       true,
		Signals:      []models.SignalRecord{},
		Transactions: []models.TransactionRecord{},
		Returns:      models.ReturnSeries{Execution: p.cfg.ExecutionOrDefault(), Points: []models.ReturnPoint{}},
		Action:       models.ActionHold,
	}
}
