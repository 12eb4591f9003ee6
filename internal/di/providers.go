package di

import (
	"context"
	"fmt"
	"time"

	"sweepguard/internal/analyzer"
	"sweepguard/internal/broker"
	"sweepguard/internal/domain/models"
	"sweepguard/internal/domain/repository"
	"sweepguard/internal/handler/api"
	"sweepguard/internal/marketdata"
	internalrepo "sweepguard/internal/repository"
	"sweepguard/internal/usecase"
	pkgch "sweepguard/pkg/clickhouse"
	"sweepguard/pkg/config"
	xhttp "sweepguard/pkg/http"
	pkgkafka "sweepguard/pkg/kafka"
	applogger "sweepguard/pkg/logger"
	"sweepguard/pkg/metrics"
	"sweepguard/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := marketdata.Schema(cfg.ClickHouse.Database)
	stmts = append(stmts, internalrepo.JournalSchema(cfg.ClickHouse.Database)...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickBuffer creates the live tick ring buffer.
func ProvideTickBuffer(cfg *config.Config) *marketdata.TickBuffer {
	return marketdata.NewTickBuffer(cfg.Snapshot.TickBuffer)
}

// ProvideTickStream creates the quote WebSocket stream.
func ProvideTickStream(cfg *config.Config) repository.TickStream {
	return marketdata.NewWSTickStream(
		cfg.Stream.WebSocketURL,
		cfg.Stream.APIKey,
		cfg.Trading.Symbol,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideSnapshotProvider assembles the per-cycle snapshot source.
func ProvideSnapshotProvider(
	cfg *config.Config,
	chClient *pkgch.Client,
	buf *marketdata.TickBuffer,
	log *applogger.Logger,
) repository.SnapshotProvider {
	candles := marketdata.NewCHCandleStore(chClient)
	candles.SetLogger(log)
	info := models.SymbolInfo{
		Symbol:     cfg.Trading.Symbol,
		Point:      cfg.Symbol.Point,
		TickSize:   cfg.Symbol.TickSize,
		TickValue:  cfg.Symbol.TickValue,
		VolumeMin:  cfg.Symbol.VolumeMin,
		VolumeMax:  cfg.Symbol.VolumeMax,
		VolumeStep: cfg.Symbol.VolumeStep,
	}
	return marketdata.NewProvider(candles, buf, info, marketdata.ProviderConfig{
		Lookback:     cfg.Snapshot.Lookback,
		MinBars:      cfg.Snapshot.MinBars,
		MaxStaleness: cfg.Snapshot.MaxStaleness,
	})
}

// ProvideGateway creates the order gateway. Only paper trading is wired.
func ProvideGateway(cfg *config.Config) repository.Gateway {
	return broker.NewPaperGateway(cfg.Broker.InitialBalance)
}

// ProvideJournal creates the ClickHouse decision journal.
func ProvideJournal(chClient *pkgch.Client, log *applogger.Logger) repository.Journal {
	j := internalrepo.NewCHJournal(chClient)
	j.SetLogger(log)
	return j
}

// ProvidePublisher creates the Kafka event publisher when enabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.SignalTopic, cfg.Kafka.ExecutionTopic), nil
}

// ProvideConsumedStore creates the idempotence guard, Redis-backed when
// enabled so the guarantee survives restarts.
func ProvideConsumedStore(cfg *config.Config) (repository.ConsumedStore, error) {
	if !cfg.Redis.Enabled {
		return internalrepo.NewMemoryConsumedStore(), nil
	}
	return internalrepo.NewRedisConsumedStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
}

func parseTimeframes(cfg *config.Config) (models.Timeframe, []models.Timeframe) {
	base := models.NormalizeTimeframe(cfg.Trading.BaseTimeframe)
	confluence := make([]models.Timeframe, 0, len(cfg.Trading.Confluence))
	for _, s := range cfg.Trading.Confluence {
		confluence = append(confluence, models.NormalizeTimeframe(s))
	}
	if len(confluence) == 0 {
		confluence = []models.Timeframe{models.TF5m, models.TF15m, models.TF1h}
	}
	return base, confluence
}

// ProvideAggregator builds the analyzer battery and the aggregator.
func ProvideAggregator(cfg *config.Config) *usecase.SignalAggregator {
	base, confluence := parseTimeframes(cfg)
	analyzers := analyzer.Default(base, confluence, cfg.Analyzer.VolumeLookback, cfg.Analyzer.StatLookback)
	return usecase.NewSignalAggregator(analyzers, usecase.AggregatorConfig{
		Threshold: cfg.Trading.Threshold,
		MinAgree:  cfg.Trading.MinAgree,
		Weights:   cfg.Trading.Weights,
		Floors:    cfg.Trading.Floors,
		ATRPeriod: cfg.Analyzer.ATRPeriod,
	}, base)
}

// ProvideExecutor creates the trade executor.
func ProvideExecutor(
	cfg *config.Config,
	gateway repository.Gateway,
	consumed repository.ConsumedStore,
) *usecase.TradeExecutor {
	return usecase.NewTradeExecutor(gateway, consumed, usecase.ExecutorConfig{
		RiskFraction:       cfg.Executor.RiskFraction,
		StopATRMult:        cfg.Executor.StopATRMult,
		TakeProfitMults:    cfg.Executor.TakeProfitMults,
		MinStopPoints:      cfg.Executor.MinStopPoints,
		FallbackStopPoints: cfg.Executor.FallbackStopPoints,
		MaxSpreadPoints:    cfg.Executor.MaxSpreadPoints,
		MaxRetries:         cfg.Executor.MaxRetries,
		RetryBackoff:       cfg.Executor.RetryBackoff,
		SubmitTimeout:      cfg.Executor.SubmitTimeout,
	})
}

// ProvideLoop creates the scan cycle driver.
func ProvideLoop(
	cfg *config.Config,
	aggregator *usecase.SignalAggregator,
	executor *usecase.TradeExecutor,
	provider repository.SnapshotProvider,
	gateway repository.Gateway,
	journal repository.Journal,
	publisher repository.Publisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Loop {
	base, confluence := parseTimeframes(cfg)
	tfs := []models.Timeframe{base}
	for _, tf := range confluence {
		if tf != base {
			tfs = append(tfs, tf)
		}
	}
	return usecase.NewLoop(aggregator, executor, provider, gateway, journal, publisher, m, log, usecase.LoopConfig{
		Symbol:         cfg.Trading.Symbol,
		Timeframes:     tfs,
		Interval:       cfg.Trading.Interval,
		MaxDailyTrades: cfg.Trading.MaxDailyTrades,
		MaxDailyLoss:   cfg.Trading.MaxDailyLoss,
	})
}

// ProvideStatusHandler creates the ops API handler.
func ProvideStatusHandler(
	log *applogger.Logger,
	loop *usecase.Loop,
	aggregator *usecase.SignalAggregator,
	provider repository.SnapshotProvider,
	stream repository.TickStream,
	chClient *pkgch.Client,
) xhttp.Handler {
	health := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return chClient.Health(ctx)
	}
	return api.NewStatusHandler(log, loop, aggregator, provider, stream, health)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	loop *usecase.Loop,
	stream repository.TickStream,
	buf *marketdata.TickBuffer,
	publisher repository.Publisher,
	journal repository.Journal,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, loop, stream, buf, publisher, journal, chClient, handler)
}
