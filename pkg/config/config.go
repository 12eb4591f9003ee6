package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" validate:"required"`

	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Trading struct {
		Symbol         string        `yaml:"symbol" validate:"required"`
		BaseTimeframe  string        `yaml:"base_timeframe" default:"5m"`
		Confluence     []string      `yaml:"confluence_timeframes"`
		Interval       time.Duration `yaml:"interval" default:"1m"`
		Threshold      float64       `yaml:"threshold" default:"120" validate:"gt=0"`
		MinAgree       int           `yaml:"min_agree" default:"5" validate:"gte=1"`
		Weights        map[string]float64 `yaml:"weights"`
		Floors         map[string]float64 `yaml:"component_floors"`
		MaxDailyTrades int           `yaml:"max_daily_trades" default:"10"`
		MaxDailyLoss   float64       `yaml:"max_daily_loss" default:"0.05" validate:"gte=0,lt=1"`
	} `yaml:"trading"`

	Analyzer struct {
		VolumeLookback int `yaml:"volume_lookback" default:"20"`
		StatLookback   int `yaml:"stat_lookback" default:"50"`
		ATRPeriod      int `yaml:"atr_period" default:"14"`
	} `yaml:"analyzer"`

	Executor struct {
		RiskFraction       float64       `yaml:"risk_fraction" default:"0.01" validate:"gt=0,lt=1"`
		StopATRMult        float64       `yaml:"stop_atr_mult" default:"1.5" validate:"gt=0"`
		TakeProfitMults    []float64     `yaml:"take_profit_mults"`
		MinStopPoints      float64       `yaml:"min_stop_points" default:"50"`
		FallbackStopPoints float64       `yaml:"fallback_stop_points" default:"200"`
		MaxSpreadPoints    float64       `yaml:"max_spread_points" default:"30"`
		MaxRetries         int           `yaml:"max_retries" default:"3" validate:"gte=1"`
		RetryBackoff       time.Duration `yaml:"retry_backoff" default:"2s"`
		SubmitTimeout      time.Duration `yaml:"submit_timeout" default:"10s"`
	} `yaml:"executor"`

	Symbol struct {
		Point      float64 `yaml:"point" default:"0.01"`
		TickSize   float64 `yaml:"tick_size" default:"0.01"`
		TickValue  float64 `yaml:"tick_value" default:"1"`
		VolumeMin  float64 `yaml:"volume_min" default:"0.01"`
		VolumeMax  float64 `yaml:"volume_max" default:"100"`
		VolumeStep float64 `yaml:"volume_step" default:"0.01"`
	} `yaml:"symbol"`

	Snapshot struct {
		Lookback     int           `yaml:"lookback" default:"1500"`
		MinBars      int           `yaml:"min_bars" default:"50"`
		MaxStaleness time.Duration `yaml:"max_staleness"`
		TickBuffer   int           `yaml:"tick_buffer" default:"512"`
	} `yaml:"snapshot"`

	ClickHouse struct {
		Host             string        `yaml:"host" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"sweepguard"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Enabled        bool     `yaml:"enabled"`
		Brokers        []string `yaml:"brokers"`
		SignalTopic    string   `yaml:"signal_topic" default:"sweepguard.signals"`
		ExecutionTopic string   `yaml:"execution_topic" default:"sweepguard.executions"`
		RequiredAcks   int      `yaml:"required_acks" default:"-1"`
		Compression    string   `yaml:"compression" default:"gzip"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`

	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl" default:"24h"`
	} `yaml:"redis"`

	Stream struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"15s"`
	} `yaml:"stream"`

	Broker struct {
		Mode           string  `yaml:"mode" default:"paper" validate:"oneof=paper"`
		InitialBalance float64 `yaml:"initial_balance" default:"10000"`
	} `yaml:"broker"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SWEEPGUARD_SYMBOL"); v != "" {
		c.Trading.Symbol = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	for _, m := range c.Executor.TakeProfitMults {
		if m <= 0 {
			return fmt.Errorf("executor.take_profit_mults must be positive, got %v", m)
		}
	}
	return nil
}
