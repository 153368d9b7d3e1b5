package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"CrossBot/internal/domain/models"
	"CrossBot/pkg/logger"
)

type Config struct {
	Environment string         `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Log         logger.Config  `yaml:"log"`
	Server      ServerConfig   `yaml:"server"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Strategy    StrategyConfig `yaml:"strategy"`
	Provider    ProviderConfig `yaml:"provider"`
	Broker      BrokerConfig   `yaml:"broker"`
	Alpaca      AlpacaConfig   `yaml:"alpaca"`
	Kafka       KafkaConfig    `yaml:"kafka"`
	ClickHouse  ClickHouse     `yaml:"clickhouse"`
	Cache       CacheConfig    `yaml:"cache"`
	Bot         BotConfig      `yaml:"bot"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       float64       `yaml:"rate_limit" default:"5"` // requests per second per client
	RateBurst       int           `yaml:"rate_burst" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type StrategyConfig struct {
	Name              string  `yaml:"name" default:"ma_crossover"`
	Symbol            string  `yaml:"symbol" default:"SPY" validate:"required"`
	ShortWindow       int     `yaml:"short_window" default:"20" validate:"gte=1,ltfield=LongWindow"`
	LongWindow        int     `yaml:"long_window" default:"50" validate:"gte=2"`
	HistoryWindowDays int     `yaml:"history_window_days" default:"365" validate:"gt=0"`
	Timeframe         string  `yaml:"timeframe" default:"1Day" validate:"oneof=1Day 1Week"`
	Execution         string  `yaml:"execution" default:"same_bar" validate:"oneof=same_bar prior_bar"`
	Quantity          float64 `yaml:"quantity" default:"1" validate:"gt=0"`
}

type ProviderConfig struct {
	Type string `yaml:"type" default:"alpaca" validate:"oneof=alpaca clickhouse"`
}

type BrokerConfig struct {
	Type string `yaml:"type" default:"dry_run" validate:"oneof=alpaca kafka dry_run"`
}

type AlpacaConfig struct {
	APIKey    string        `yaml:"api_key"`
	SecretKey string        `yaml:"secret_key"`
	BaseURL   string        `yaml:"base_url" default:"https://paper-api.alpaca.markets" validate:"url"`
	DataURL   string        `yaml:"data_url" default:"https://data.alpaca.markets" validate:"url"`
	Feed      string        `yaml:"feed" default:"iex" validate:"oneof=iex sip"`
	Timeout   time.Duration `yaml:"timeout" default:"15s"`
	Retries   int           `yaml:"retries" default:"2" validate:"gte=0"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	OrdersTopic  string   `yaml:"orders_topic" default:"crossbot.orders"`
	LogTopic     string   `yaml:"log_topic" default:"crossbot.errors"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"1"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"crossbot-executor"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"crossbot.orders.dlq"`
	} `yaml:"consumer"`
}

type ClickHouse struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"crossbot"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type CacheConfig struct {
	BarsTTL     time.Duration `yaml:"bars_ttl" default:"5m"`
	ResponseTTL time.Duration `yaml:"response_ttl" default:"30s"`
	Redis       struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

type BotConfig struct {
	Interval time.Duration `yaml:"interval" default:"1h" validate:"gt=0"`
	Disabled bool          `yaml:"disabled"` // serve HTTP only
}

var validate = validator.New()

// Load reads a YAML file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns a Config holding only default values.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment and re-validates.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("APCA_API_KEY_ID"); v != "" {
		c.Alpaca.APIKey = v
	}
	if v := getenv("APCA_API_SECRET_KEY"); v != "" {
		c.Alpaca.SecretKey = v
	}
	if v := getenv("APCA_API_BASE_URL"); v != "" {
		c.Alpaca.BaseURL = v
	}
	if v := getenv("SYMBOL"); v != "" {
		c.Strategy.Symbol = strings.ToUpper(v)
	}
	if v := getenv("SHORT_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHORT_WINDOW: %w", err)
		}
		c.Strategy.ShortWindow = n
	}
	if v := getenv("LONG_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LONG_WINDOW: %w", err)
		}
		c.Strategy.LongWindow = n
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks struct tags and the cross-section requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Broker.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when broker.type is kafka")
	}
	if c.Broker.Type == "alpaca" && (c.Alpaca.APIKey == "" || c.Alpaca.SecretKey == "") {
		return fmt.Errorf("alpaca credentials are required when broker.type is alpaca")
	}
	return nil
}

// StrategyConfig converts the strategy section into the domain value.
func (c *Config) StrategyConfig() (models.StrategyConfig, error) {
	sc := models.StrategyConfig{
		Symbol:            c.Strategy.Symbol,
		ShortWindow:       c.Strategy.ShortWindow,
		LongWindow:        c.Strategy.LongWindow,
		HistoryWindowDays: c.Strategy.HistoryWindowDays,
		Timeframe:         c.Strategy.Timeframe,
		Execution:         models.ExecutionMode(c.Strategy.Execution),
		Quantity:          decimal.NewFromFloat(c.Strategy.Quantity),
	}
	if err := sc.Validate(); err != nil {
		return models.StrategyConfig{}, err
	}
	return sc, nil
}
