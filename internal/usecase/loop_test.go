package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepguard/internal/analyzer"
	"sweepguard/internal/broker"
	"sweepguard/internal/domain/models"
	internalrepo "sweepguard/internal/repository"
	applogger "sweepguard/pkg/logger"
)

type stubProvider struct {
	snap   *models.MarketSnapshot
	err    error
	panics bool
}

func (p *stubProvider) GetSnapshot(_ context.Context, _ string, _ []models.Timeframe) (*models.MarketSnapshot, error) {
	if p.panics {
		panic("provider blew up")
	}
	return p.snap, p.err
}

type memJournal struct {
	mu         sync.Mutex
	signals    []*models.AggregatedSignal
	executions []*models.ExecutionResult
}

func (j *memJournal) RecordSignal(_ context.Context, s *models.AggregatedSignal) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.signals = append(j.signals, s)
	return nil
}

func (j *memJournal) RecordExecution(_ context.Context, r *models.ExecutionResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.executions = append(j.executions, r)
	return nil
}

func (j *memJournal) Close() error { return nil }

type countingMetrics struct {
	mu       sync.Mutex
	cycles   map[string]int
	orders   map[string]int
	errors   map[string]int
	faults   map[string]int
	signals  int
	validSig int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		cycles: map[string]int{},
		orders: map[string]int{},
		errors: map[string]int{},
		faults: map[string]int{},
	}
}

func (m *countingMetrics) RecordCycle(outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[outcome]++
}

func (m *countingMetrics) RecordSignal(_ string, valid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals++
	if valid {
		m.validSig++
	}
}

func (m *countingMetrics) RecordTotalScore(_ float64) {}

func (m *countingMetrics) RecordAnalyzerFault(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[name]++
}

func (m *countingMetrics) RecordOrder(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[status]++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func loopSnapshot() *models.MarketSnapshot {
	snap := executionSnapshot()
	snap.Timestamp = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	snap.Bars = map[models.Timeframe][]models.Candle{}
	return snap
}

func newTestLoop(
	t *testing.T,
	analyzers []analyzer.Analyzer,
	provider *stubProvider,
	gw *broker.PaperGateway,
	cfg LoopConfig,
) (*Loop, *memJournal, *countingMetrics) {
	t.Helper()
	agg := NewSignalAggregator(analyzers, AggregatorConfig{Threshold: 120, MinAgree: 5}, models.TF5m)
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())
	journal := &memJournal{}
	m := newCountingMetrics()
	if cfg.Symbol == "" {
		cfg.Symbol = "XAUUSD"
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	loop := NewLoop(agg, ex, provider, gw, journal, internalrepo.NopPublisher{}, m, testLogger(t), cfg)
	return loop, journal, m
}

func TestLoopExecutesValidSignal(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{snap: loopSnapshot()}
	loop, journal, m := newTestLoop(t, battery(9, 20, models.DirectionBuy), provider, gw, LoopConfig{})

	loop.runCycle(context.Background())

	assertion.Len(gw.Orders(), 1)
	assertion.Len(journal.signals, 1)
	assertion.Len(journal.executions, 1)
	assertion.Equal(1, m.orders[string(models.OrderFilled)])
	assertion.Equal(1, m.cycles["ok"])
	assertion.NotNil(loop.LastSignal())
	assertion.True(loop.LastSignal().Valid)
}

func TestLoopSkipsInvalidSignal(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{snap: loopSnapshot()}
	// unanimous but weak: 9 x 5 = 45, far below the 120 threshold
	loop, journal, m := newTestLoop(t, func() []analyzer.Analyzer {
		out := battery(9, 20, models.DirectionBuy)
		for _, a := range out {
			a.(*stubAnalyzer).score = 5
		}
		return out
	}(), provider, gw, LoopConfig{})

	loop.runCycle(context.Background())

	assertion.Empty(gw.Orders())
	assertion.Len(journal.signals, 1, "every aggregate is journaled, valid or not")
	assertion.Empty(journal.executions)
	assertion.Equal(1, m.cycles["no_signal"])
}

func TestLoopSurvivesSnapshotFailure(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{err: models.ErrDataUnavailable}
	loop, journal, m := newTestLoop(t, battery(9, 20, models.DirectionBuy), provider, gw, LoopConfig{})

	loop.runCycle(context.Background())
	loop.runCycle(context.Background())

	assertion.Empty(gw.Orders())
	assertion.Empty(journal.signals)
	assertion.Equal(2, m.cycles["no_data"])
	assertion.Equal(2, m.errors["snapshot"])
}

func TestLoopSurvivesProviderPanic(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{panics: true}
	loop, _, m := newTestLoop(t, battery(9, 20, models.DirectionBuy), provider, gw, LoopConfig{})

	assertion.NotPanics(func() { loop.runCycle(context.Background()) })
	assertion.Equal(1, m.cycles["panic"])
	assertion.Equal(1, m.errors["cycle_panic"])
}

func TestLastSignalConcurrentWithCycles(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{snap: loopSnapshot()}
	loop, _, _ := newTestLoop(t, battery(9, 20, models.DirectionBuy), provider, gw, LoopConfig{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			loop.runCycle(context.Background())
		}
	}()

	seen := false
	for {
		if sig := loop.LastSignal(); sig != nil {
			seen = true
		}
		select {
		case <-done:
			assertion.True(seen)
			assertion.NotNil(loop.LastSignal())
			return
		default:
		}
	}
}

func TestLoopDailyTradeCap(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{snap: loopSnapshot()}
	loop, _, m := newTestLoop(t, battery(9, 20, models.DirectionBuy), provider, gw, LoopConfig{MaxDailyTrades: 1})

	loop.runCycle(context.Background())
	loop.runCycle(context.Background())

	assertion.Len(gw.Orders(), 1, "second trade must be guarded")
	assertion.Equal(1, m.cycles["ok"])
	assertion.Equal(1, m.cycles["guarded"])
}

func TestLoopDailyLossGuard(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	provider := &stubProvider{snap: loopSnapshot()}
	loop, _, m := newTestLoop(t, battery(9, 20, models.DirectionBuy), provider, gw, LoopConfig{MaxDailyLoss: 0.05})

	loop.runCycle(context.Background())
	assertion.Len(gw.Orders(), 1)

	// equity drops 6% intraday, beyond the 5% limit
	gw.MarkProfit(-600)
	loop.runCycle(context.Background())

	assertion.Len(gw.Orders(), 1, "loss limit must stop further trading")
	assertion.Equal(1, m.cycles["guarded"])
}
