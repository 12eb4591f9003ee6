package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepguard/internal/broker"
	"sweepguard/internal/domain/models"
	internalrepo "sweepguard/internal/repository"
)

// scriptGateway plays back a scripted sequence of submission outcomes.
type scriptGateway struct {
	mu     sync.Mutex
	errs   []error
	result models.OrderResult
	acct   models.AccountInfo
	calls  int
}

func (g *scriptGateway) Account(_ context.Context) (models.AccountInfo, error) {
	return g.acct, nil
}

func (g *scriptGateway) SubmitOrder(_ context.Context, _ models.OrderRequest) (models.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.calls
	g.calls++
	if idx < len(g.errs) && g.errs[idx] != nil {
		return models.OrderResult{}, g.errs[idx]
	}
	return g.result, nil
}

func (g *scriptGateway) submissions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func executorConfig() ExecutorConfig {
	return ExecutorConfig{
		RiskFraction:       0.01,
		StopATRMult:        1.5,
		TakeProfitMults:    []float64{1.5, 2.0, 3.0},
		MinStopPoints:      50,
		FallbackStopPoints: 200,
		MaxSpreadPoints:    30,
		MaxRetries:         3,
		RetryBackoff:       time.Millisecond,
		SubmitTimeout:      time.Second,
	}
}

func validSignal() *models.AggregatedSignal {
	return &models.AggregatedSignal{
		ID:        "sig-1",
		Symbol:    "XAUUSD",
		Timestamp: time.Now().UTC(),
		Direction: models.DirectionBuy,
		Valid:     true,
		Entry:     2000.00,
		ATR:       2.0,
	}
}

func executionSnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol: "XAUUSD",
		Bid:    1999.99,
		Ask:    2000.01,
		Info: models.SymbolInfo{
			Symbol:     "XAUUSD",
			Point:      0.01,
			TickSize:   0.01,
			TickValue:  1,
			VolumeMin:  0.01,
			VolumeMax:  100,
			VolumeStep: 0.01,
		},
	}
}

func TestExecuteHappyPath(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	res := ex.Execute(context.Background(), validSignal(), executionSnapshot())

	require.Equal(t, models.OrderFilled, res.Status, res.Reason)
	assertion.Equal(1, res.Attempts)
	assertion.Equal("sig-1", res.SignalID)

	orders := gw.Orders()
	require.Len(t, orders, 1)
	req := orders[0]

	// equity 10000 at 1% risk = 100; stop 3.00 over 0.01 ticks at 1/tick
	// means 300 per lot, so 0.33 lots after step snapping
	assertion.InDelta(0.33, req.Volume, 1e-9)
	assertion.Equal(2000.01, req.Price)
	assertion.InDelta(1997.01, req.StopLoss, 1e-9)
	assertion.InDelta(2004.51, req.TakeProfit, 1e-9)
}

func TestExecuteSellSideStops(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	sig := validSignal()
	sig.Direction = models.DirectionSell

	res := ex.Execute(context.Background(), sig, executionSnapshot())
	require.Equal(t, models.OrderFilled, res.Status, res.Reason)

	req := gw.Orders()[0]
	assertion.Equal(1999.99, req.Price)
	assertion.InDelta(2002.99, req.StopLoss, 1e-9)
	assertion.InDelta(1995.49, req.TakeProfit, 1e-9)
}

func TestExecuteSignalConsumedExactlyOnce(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())
	sig := validSignal()

	first := ex.Execute(context.Background(), sig, executionSnapshot())
	second := ex.Execute(context.Background(), sig, executionSnapshot())

	assertion.Equal(models.OrderFilled, first.Status)
	assertion.Equal(models.OrderRejected, second.Status)
	assertion.Contains(second.Reason, "already consumed")
	assertion.Len(gw.Orders(), 1, "a duplicate must never reach the broker")
}

func TestExecuteInvalidSignalRejectedWithoutSubmission(t *testing.T) {
	assertion := assert.New(t)

	gw := &scriptGateway{acct: models.AccountInfo{Equity: 10_000}}
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	sig := validSignal()
	sig.Valid = false

	res := ex.Execute(context.Background(), sig, executionSnapshot())

	assertion.Equal(models.OrderRejected, res.Status)
	assertion.Zero(gw.submissions())
}

func TestExecuteTimeoutsExhaustRetries(t *testing.T) {
	assertion := assert.New(t)

	gw := &scriptGateway{
		acct: models.AccountInfo{Equity: 10_000},
		errs: []error{
			fmt.Errorf("attempt 1: %w", broker.ErrTimeout),
			fmt.Errorf("attempt 2: %w", broker.ErrTimeout),
			fmt.Errorf("attempt 3: %w", broker.ErrTimeout),
		},
	}
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	res := ex.Execute(context.Background(), validSignal(), executionSnapshot())

	assertion.Equal(models.OrderFailed, res.Status)
	assertion.Equal(3, res.Attempts)
	assertion.Equal(3, gw.submissions())
	assertion.Contains(res.Reason, "max retries")
}

func TestExecuteTimeoutThenFill(t *testing.T) {
	assertion := assert.New(t)

	gw := &scriptGateway{
		acct:   models.AccountInfo{Equity: 10_000},
		errs:   []error{fmt.Errorf("slow broker: %w", broker.ErrTimeout)},
		result: models.OrderResult{OrderID: "o-7", Status: models.OrderFilled, FillPrice: 2000.01, FilledVolume: 0.33},
	}
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	res := ex.Execute(context.Background(), validSignal(), executionSnapshot())

	assertion.Equal(models.OrderFilled, res.Status)
	assertion.Equal(2, res.Attempts)
	assertion.Equal("o-7", res.OrderID)
}

func TestExecuteRejectionIsFatal(t *testing.T) {
	assertion := assert.New(t)

	gw := &scriptGateway{
		acct: models.AccountInfo{Equity: 10_000},
		errs: []error{
			fmt.Errorf("bad stop level: %w", broker.ErrRejected),
			nil, nil,
		},
	}
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	res := ex.Execute(context.Background(), validSignal(), executionSnapshot())

	assertion.Equal(models.OrderRejected, res.Status)
	assertion.Equal(1, res.Attempts)
	assertion.Equal(1, gw.submissions(), "parameter rejections must not be retried")
}

func TestExecutePositionBelowMinimumRejected(t *testing.T) {
	assertion := assert.New(t)

	gw := &scriptGateway{acct: models.AccountInfo{Equity: 10}}
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	res := ex.Execute(context.Background(), validSignal(), executionSnapshot())

	assertion.Equal(models.OrderRejected, res.Status)
	assertion.Contains(res.Reason, "below broker minimum")
	assertion.Zero(gw.submissions())
}

func TestExecuteSpreadGate(t *testing.T) {
	assertion := assert.New(t)

	gw := &scriptGateway{acct: models.AccountInfo{Equity: 10_000}}
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	snap := executionSnapshot()
	snap.Ask = snap.Bid + 0.50 // 50 points, gate is 30

	res := ex.Execute(context.Background(), validSignal(), snap)

	assertion.Equal(models.OrderRejected, res.Status)
	assertion.Contains(res.Reason, "spread")
	assertion.Zero(gw.submissions())
}

func TestExecuteMinStopFloorApplies(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(10_000)
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	sig := validSignal()
	sig.ATR = 0.10 // 1.5x ATR = 0.15, below the 0.50 floor

	res := ex.Execute(context.Background(), sig, executionSnapshot())
	require.Equal(t, models.OrderFilled, res.Status, res.Reason)

	req := gw.Orders()[0]
	assertion.InDelta(2000.01-0.50, req.StopLoss, 1e-9)
}

func TestExecuteVolumeClampedToMax(t *testing.T) {
	assertion := assert.New(t)

	gw := broker.NewPaperGateway(100_000_000)
	ex := NewTradeExecutor(gw, internalrepo.NewMemoryConsumedStore(), executorConfig())

	res := ex.Execute(context.Background(), validSignal(), executionSnapshot())
	require.Equal(t, models.OrderFilled, res.Status, res.Reason)

	assertion.Equal(100.0, gw.Orders()[0].Volume)
}
