//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CrossBot/internal/usecase"
	"CrossBot/pkg/config"
	"CrossBot/pkg/server"
)

var baseSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideMetrics,
	ProvideAlpacaClient,
)

var analysisSet = wire.NewSet(
	baseSet,
	ProvideStrategyConfig,
	ProvideOptionalClickHouse,
	ProvideCache,
	ProvideMarketDataProvider,
	ProvideBacktestUseCase,
)

// InitializeApp wires the HTTP server and the trade bot.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		analysisSet,
		ProvideBrokerGateway,
		ProvidePipeline,
		ProvideTradeBot,
		ProvideAnalysisHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeBacktest wires a one-shot backtest for the CLI.
func InitializeBacktest(cfg *config.Config) (*usecase.BacktestUseCase, func(), error) {
	wire.Build(analysisSet)
	return nil, nil, nil
}

// InitializeBarSync wires the Alpaca to ClickHouse bar sync.
func InitializeBarSync(cfg *config.Config) (*usecase.BarSync, func(), error) {
	wire.Build(
		baseSet,
		ProvideClickHouseClient,
		ProvideBarStore,
		ProvideBarSync,
	)
	return nil, nil, nil
}

// InitializeExecutor wires the Kafka order consumer.
func InitializeExecutor(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		baseSet,
		ProvideOrderExecutor,
		ProvideKafkaConsumer,
		ProvideExecutorApp,
	)
	return nil, nil, nil
}
