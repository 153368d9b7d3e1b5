package di

import (
	"context"
	"fmt"
	"time"

	"CrossBot/internal/domain/models"
	"CrossBot/internal/domain/repository"
	"CrossBot/internal/handler/api"
	internalrepo "CrossBot/internal/repository"
	"CrossBot/internal/service/alpaca"
	icache "CrossBot/internal/service/cache"
	"CrossBot/internal/service/ratelimit"
	"CrossBot/internal/usecase"
	pkgch "CrossBot/pkg/clickhouse"
	"CrossBot/pkg/config"
	xhttp "CrossBot/pkg/http"
	pkgkafka "CrossBot/pkg/kafka"
	"CrossBot/pkg/logger"
	"CrossBot/pkg/metrics"
	"CrossBot/pkg/server"
)

func nop() {}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nop, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. With a producer, repeated
// error logs are aggregated and shipped to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil {
		return l, nop, nil
	}
	l.AddCollector(&logger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Kafka.LogTopic,
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

func ProvideStrategyConfig(cfg *config.Config) (models.StrategyConfig, error) {
	return cfg.StrategyConfig()
}

func ProvideAlpacaClient(cfg *config.Config, l *logger.Logger) *alpaca.Client {
	return alpaca.New(alpaca.Config{
		APIKey:    cfg.Alpaca.APIKey,
		SecretKey: cfg.Alpaca.SecretKey,
		BaseURL:   cfg.Alpaca.BaseURL,
		DataURL:   cfg.Alpaca.DataURL,
		Feed:      cfg.Alpaca.Feed,
		Timeout:   cfg.Alpaca.Timeout,
		Retries:   cfg.Alpaca.Retries,
	}, l)
}

// ProvideClickHouseClient connects and ensures the bar tables exist.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.BarSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideOptionalClickHouse connects only when bars are read from ClickHouse.
func ProvideOptionalClickHouse(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Provider.Type != "clickhouse" {
		return nil, nop, nil
	}
	return ProvideClickHouseClient(cfg)
}

func ProvideBarStore(cfg *config.Config, ch *pkgch.Client, l *logger.Logger) *internalrepo.CHBarStore {
	return internalrepo.NewCHBarStore(ch, cfg.ClickHouse.Database, l)
}

// ProvideCache returns Redis when enabled, otherwise an in-process TTL cache.
func ProvideCache(cfg *config.Config, l *logger.Logger) (icache.BytesCache, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return icache.NewTTLCache(), nop, nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	l.Info("redis cache connected", logger.String("addr", cfg.Cache.Redis.Addr))
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideMarketDataProvider selects the bar source and wraps it with the bars cache.
func ProvideMarketDataProvider(
	cfg *config.Config,
	alp *alpaca.Client,
	ch *pkgch.Client,
	c icache.BytesCache,
	l *logger.Logger,
) (repository.MarketDataProvider, error) {
	var base repository.MarketDataProvider
	switch cfg.Provider.Type {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("%w: clickhouse provider without a client", models.ErrInvalidConfig)
		}
		base = internalrepo.NewCHBarStore(ch, cfg.ClickHouse.Database, l)
	default:
		base = alp
	}
	if cfg.Cache.BarsTTL <= 0 {
		return base, nil
	}
	return internalrepo.NewCachedProvider(base, c, cfg.Cache.BarsTTL, l), nil
}

// ProvideBrokerGateway selects where the trade bot sends order intents.
func ProvideBrokerGateway(
	cfg *config.Config,
	alp *alpaca.Client,
	producer *pkgkafka.Producer,
	l *logger.Logger,
) (repository.BrokerGateway, error) {
	switch cfg.Broker.Type {
	case "alpaca":
		return alp, nil
	case "kafka":
		if producer == nil {
			return nil, fmt.Errorf("%w: kafka broker without brokers", models.ErrInvalidConfig)
		}
		return internalrepo.NewKafkaOrderGateway(producer, cfg.Kafka.OrdersTopic), nil
	default:
		return internalrepo.NewDryRunGateway(l), nil
	}
}

func ProvidePipeline(cfg *config.Config, sc models.StrategyConfig, l *logger.Logger, m repository.Metrics) (*usecase.Pipeline, error) {
	return usecase.NewPipeline(sc, cfg.Strategy.Name, l, m)
}

func ProvideBacktestUseCase(
	cfg *config.Config,
	sc models.StrategyConfig,
	provider repository.MarketDataProvider,
	l *logger.Logger,
	m repository.Metrics,
) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(provider, sc, cfg.Strategy.Name, l, m)
}

func ProvideTradeBot(
	provider repository.MarketDataProvider,
	gateway repository.BrokerGateway,
	pipe *usecase.Pipeline,
	l *logger.Logger,
	m repository.Metrics,
) *usecase.TradeBot {
	return usecase.NewTradeBot(provider, gateway, pipe, l, m)
}

func ProvideBarSync(alp *alpaca.Client, store *internalrepo.CHBarStore, l *logger.Logger, m repository.Metrics) *usecase.BarSync {
	return usecase.NewBarSync(alp, store, l, m)
}

func ProvideAnalysisHandler(cfg *config.Config, l *logger.Logger, uc *usecase.BacktestUseCase, c icache.BytesCache) *api.AnalysisHandler {
	return api.NewAnalysisHandler(l, uc, c, cfg.Cache.ResponseTTL)
}

// ProvideHTTPServer creates the Echo server with the analysis routes.
func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, h *api.AnalysisHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if cfg.Server.RateLimit > 0 {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateBurst)))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideOrderExecutor forwards consumed intents to Alpaca, or only logs them
// when no credentials are configured.
func ProvideOrderExecutor(cfg *config.Config, alp *alpaca.Client, l *logger.Logger, m repository.Metrics) *usecase.OrderExecutor {
	var broker repository.BrokerGateway = alp
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.SecretKey == "" {
		l.Warn("alpaca credentials missing, executor runs dry")
		broker = internalrepo.NewDryRunGateway(l)
	}
	return usecase.NewOrderExecutor(cfg.Kafka.OrdersTopic, broker, l, m)
}

// ProvideKafkaConsumer creates the order-intent consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, exec *usecase.OrderExecutor, l *logger.Logger) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(exec, l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideApp creates the serving application: HTTP plus the trade bot unless disabled.
func ProvideApp(cfg *config.Config, l *logger.Logger, srv *xhttp.Server, bot *usecase.TradeBot) *server.App {
	opts := []server.Option{server.WithHTTPServer(srv)}
	if !cfg.Bot.Disabled {
		opts = append(opts, server.WithTradeBot(bot))
	}
	return server.New(cfg, l, opts...)
}

// ProvideExecutorApp creates the order-executor application.
func ProvideExecutorApp(cfg *config.Config, l *logger.Logger, consumer *pkgkafka.Consumer) *server.App {
	return server.New(cfg, l, server.WithConsumer(consumer))
}
