package repository

import (
	"context"

	"sweepguard/internal/domain/models"
)

// SnapshotProvider assembles the per-cycle market snapshot.
// A connectivity failure means "no signal this cycle", never a crash.
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, symbol string, tfs []models.Timeframe) (*models.MarketSnapshot, error)
}

// TickStream is a live top-of-book feed backing the snapshot tick buffer.
type TickStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Tick, <-chan error)
	Close() error
	IsConnected() bool
}

// Gateway is the order submission path to the broker. SubmitOrder returns
// broker.ErrTimeout for retryable expiries and broker.ErrRejected for fatal
// parameter rejections.
type Gateway interface {
	Account(ctx context.Context) (models.AccountInfo, error)
	SubmitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
}

// Journal persists every decision for later inspection.
type Journal interface {
	RecordSignal(ctx context.Context, sig *models.AggregatedSignal) error
	RecordExecution(ctx context.Context, res *models.ExecutionResult) error
	Close() error
}

// Publisher emits decision events to downstream consumers.
type Publisher interface {
	PublishSignal(ctx context.Context, sig *models.AggregatedSignal) error
	PublishExecution(ctx context.Context, res *models.ExecutionResult) error
	Close() error
}

// ConsumedStore marks signals as consumed so a duplicate execute call can
// never submit a second order. MarkConsumed returns false when the signal
// was already consumed.
type ConsumedStore interface {
	MarkConsumed(ctx context.Context, signalID string) (bool, error)
}

// Metrics is the instrumentation sink for the trading loop.
type Metrics interface {
	RecordCycle(outcome string, seconds float64)
	RecordSignal(direction string, valid bool)
	RecordTotalScore(score float64)
	RecordAnalyzerFault(analyzer string)
	RecordOrder(status string)
	RecordError(kind string)
}
