package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/domain/repository"
	"sweepguard/pkg/logger"
)

// LoopConfig holds the per-cycle cadence and the daily safety guards.
type LoopConfig struct {
	Symbol         string
	Timeframes     []models.Timeframe
	Interval       time.Duration
	MaxDailyTrades int
	MaxDailyLoss   float64 // positive fraction of day-start equity, 0 disables
}

// Loop is the scan cycle driver. Every Interval it builds a snapshot,
// evaluates the analyzer battery and, when the aggregate is valid and the
// daily guards allow, hands the signal to the executor. A cycle failure is
// logged and counted, never propagated: the loop only stops when its
// context is cancelled.
type Loop struct {
	aggregator *SignalAggregator
	executor   *TradeExecutor
	provider   repository.SnapshotProvider
	gateway    repository.Gateway
	journal    repository.Journal
	publisher  repository.Publisher
	metrics    repository.Metrics
	log        *logger.Logger
	cfg        LoopConfig

	day            time.Time
	dayTrades      int
	dayStartEquity float64
	dayLoss        float64

	sigMu      sync.RWMutex
	lastSignal *models.AggregatedSignal
}

func NewLoop(
	aggregator *SignalAggregator,
	executor *TradeExecutor,
	provider repository.SnapshotProvider,
	gateway repository.Gateway,
	journal repository.Journal,
	publisher repository.Publisher,
	metrics repository.Metrics,
	log *logger.Logger,
	cfg LoopConfig,
) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Loop{
		aggregator: aggregator,
		executor:   executor,
		provider:   provider,
		gateway:    gateway,
		journal:    journal,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		cfg:        cfg,
	}
}

// Run blocks until ctx is cancelled. The first cycle fires immediately.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("trading loop started",
		logger.String("symbol", l.cfg.Symbol),
		logger.Duration("interval", l.cfg.Interval))

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			l.log.Info("trading loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.runCycle(ctx)
		}
	}
}

// LastSignal returns the most recent aggregate, valid or not. The ops API
// reads it while the loop keeps writing.
func (l *Loop) LastSignal() *models.AggregatedSignal {
	l.sigMu.RLock()
	defer l.sigMu.RUnlock()
	return l.lastSignal
}

// runCycle is the per-cycle error boundary: panics and errors end the
// cycle, not the loop.
func (l *Loop) runCycle(ctx context.Context) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			l.metrics.RecordError("cycle_panic")
			l.log.Error("cycle panicked", logger.Any("panic", r))
		}
		l.metrics.RecordCycle(outcome, time.Since(start).Seconds())
	}()

	l.rollDay(start.UTC())

	snap, err := l.provider.GetSnapshot(ctx, l.cfg.Symbol, l.cfg.Timeframes)
	if err != nil {
		outcome = "no_data"
		l.metrics.RecordError("snapshot")
		l.log.Warn("snapshot unavailable, skipping cycle", logger.Error(err))
		return
	}

	sig := l.aggregator.Evaluate(snap)
	l.sigMu.Lock()
	l.lastSignal = sig
	l.sigMu.Unlock()
	l.metrics.RecordSignal(string(sig.Direction), sig.Valid)
	l.metrics.RecordTotalScore(sig.TotalScore)
	for _, name := range sig.Degraded {
		l.metrics.RecordAnalyzerFault(name)
	}

	l.record(ctx, sig, nil)

	if !sig.Valid {
		outcome = "no_signal"
		l.log.Debug("no valid signal",
			logger.Float64("score", sig.TotalScore),
			logger.String("direction", string(sig.Direction)))
		return
	}

	l.log.Info("valid signal",
		logger.String("signal_id", sig.ID),
		logger.String("direction", string(sig.Direction)),
		logger.Float64("score", sig.TotalScore),
		logger.Float64("threshold", sig.Threshold),
		logger.Int("agreement", sig.Agreement()))

	if acct, err := l.gateway.Account(ctx); err == nil {
		l.RecordDailyEquity(acct.Equity)
	}

	if reason := l.guard(); reason != "" {
		outcome = "guarded"
		l.log.Warn("daily guard engaged, signal not executed",
			logger.String("signal_id", sig.ID),
			logger.String("reason", reason))
		return
	}

	res := l.executor.Execute(ctx, sig, snap)
	l.metrics.RecordOrder(string(res.Status))
	l.record(ctx, nil, res)

	switch res.Status {
	case models.OrderFilled, models.OrderPartial:
		l.dayTrades++
		l.log.Info("order executed",
			logger.String("signal_id", sig.ID),
			logger.String("status", string(res.Status)),
			logger.String("order_id", res.OrderID),
			logger.Float64("volume", res.Volume),
			logger.Int("attempts", res.Attempts))
	case models.OrderFailed:
		outcome = "execution_failed"
		l.metrics.RecordError("execution")
		l.log.Error("order execution failed",
			logger.String("signal_id", sig.ID),
			logger.String("reason", res.Reason),
			logger.Int("attempts", res.Attempts))
	default:
		outcome = "rejected"
		l.log.Warn("order not placed",
			logger.String("signal_id", sig.ID),
			logger.String("status", string(res.Status)),
			logger.String("reason", res.Reason))
	}
}

// record journals and publishes a decision. Persistence trouble is logged
// and never blocks trading.
func (l *Loop) record(ctx context.Context, sig *models.AggregatedSignal, res *models.ExecutionResult) {
	if sig != nil {
		if err := l.journal.RecordSignal(ctx, sig); err != nil {
			l.metrics.RecordError("journal")
			l.log.Warn("journal signal write failed", logger.Error(err))
		}
		if err := l.publisher.PublishSignal(ctx, sig); err != nil {
			l.metrics.RecordError("publish")
			l.log.Warn("signal publish failed", logger.Error(err))
		}
	}
	if res != nil {
		if err := l.journal.RecordExecution(ctx, res); err != nil {
			l.metrics.RecordError("journal")
			l.log.Warn("journal execution write failed", logger.Error(err))
		}
		if err := l.publisher.PublishExecution(ctx, res); err != nil {
			l.metrics.RecordError("publish")
			l.log.Warn("execution publish failed", logger.Error(err))
		}
	}
}

// guard returns a non-empty reason when the daily limits forbid trading.
func (l *Loop) guard() string {
	if l.cfg.MaxDailyTrades > 0 && l.dayTrades >= l.cfg.MaxDailyTrades {
		return fmt.Sprintf("daily trade cap reached (%d)", l.cfg.MaxDailyTrades)
	}
	if l.cfg.MaxDailyLoss > 0 && l.dayStartEquity > 0 {
		limit := l.dayStartEquity * l.cfg.MaxDailyLoss
		if l.dayLoss >= limit {
			return fmt.Sprintf("daily loss limit reached (%.2f >= %.2f)", l.dayLoss, limit)
		}
	}
	return ""
}

// RecordDailyEquity seeds the loss guard with the current equity figure.
// The day-start value is captured on the first call after a day roll.
func (l *Loop) RecordDailyEquity(equity float64) {
	if l.dayStartEquity <= 0 {
		l.dayStartEquity = equity
		return
	}
	if drop := l.dayStartEquity - equity; drop > l.dayLoss {
		l.dayLoss = drop
	}
}

// rollDay resets the daily counters at the UTC date boundary.
func (l *Loop) rollDay(now time.Time) {
	day := now.Truncate(24 * time.Hour)
	if day.Equal(l.day) {
		return
	}
	if !l.day.IsZero() {
		l.log.Info("daily counters reset",
			logger.Int("trades", l.dayTrades),
			logger.Float64("loss", l.dayLoss))
	}
	l.day = day
	l.dayTrades = 0
	l.dayLoss = 0
	l.dayStartEquity = 0
}
