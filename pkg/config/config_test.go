package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
environment: test
trading:
  symbol: XAUUSD
clickhouse:
  host: localhost
`

func TestLoadAppliesDefaults(t *testing.T) {
	assertion := assert.New(t)

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assertion.Equal("test", cfg.Environment)
	assertion.Equal("XAUUSD", cfg.Trading.Symbol)
	assertion.Equal(8080, cfg.Server.Port)
	assertion.Equal("5m", cfg.Trading.BaseTimeframe)
	assertion.Equal(120.0, cfg.Trading.Threshold)
	assertion.Equal(5, cfg.Trading.MinAgree)
	assertion.Equal(time.Minute, cfg.Trading.Interval)
	assertion.Equal(0.01, cfg.Executor.RiskFraction)
	assertion.Equal(3, cfg.Executor.MaxRetries)
	assertion.Equal("sweepguard", cfg.ClickHouse.Database)
	assertion.Equal("sweepguard.signals", cfg.Kafka.SignalTopic)
	assertion.Equal("paper", cfg.Broker.Mode)
	assertion.Equal(24*time.Hour, cfg.Redis.TTL)
}

func TestLoadOverridesDefaults(t *testing.T) {
	assertion := assert.New(t)

	cfg, err := Load(writeConfig(t, `
environment: production
server:
  port: 9090
trading:
  symbol: EURUSD
  threshold: 90
  min_agree: 3
executor:
  max_retries: 5
  take_profit_mults: [1.5, 2.0, 3.0]
clickhouse:
  host: ch.internal
`))
	require.NoError(t, err)

	assertion.Equal(9090, cfg.Server.Port)
	assertion.Equal("EURUSD", cfg.Trading.Symbol)
	assertion.Equal(90.0, cfg.Trading.Threshold)
	assertion.Equal(3, cfg.Trading.MinAgree)
	assertion.Equal(5, cfg.Executor.MaxRetries)
	assertion.Equal([]float64{1.5, 2.0, 3.0}, cfg.Executor.TakeProfitMults)
}

func TestLoadRejectsMissingSymbol(t *testing.T) {
	assertion := assert.New(t)

	_, err := Load(writeConfig(t, `
environment: test
clickhouse:
  host: localhost
`))
	assertion.Error(err)
}

func TestLoadRejectsMissingClickHouseHost(t *testing.T) {
	assertion := assert.New(t)

	_, err := Load(writeConfig(t, `
environment: test
trading:
  symbol: XAUUSD
`))
	assertion.Error(err)
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	assertion := assert.New(t)

	_, err := Load(writeConfig(t, minimalConfig+`
kafka:
  enabled: true
`))
	assertion.ErrorContains(err, "kafka.brokers")
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	assertion := assert.New(t)

	_, err := Load(writeConfig(t, minimalConfig+`
redis:
  enabled: true
`))
	assertion.ErrorContains(err, "redis.addr")
}

func TestLoadRejectsNonPositiveTakeProfit(t *testing.T) {
	assertion := assert.New(t)

	_, err := Load(writeConfig(t, minimalConfig+`
executor:
  take_profit_mults: [1.5, -2.0]
`))
	assertion.ErrorContains(err, "take_profit_mults")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	assertion := assert.New(t)

	t.Setenv("SWEEPGUARD_SYMBOL", "BTCUSD")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assertion.Equal("BTCUSD", cfg.Trading.Symbol)
	assertion.Equal("redis.internal:6379", cfg.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	assertion := assert.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assertion.Error(err)
}
