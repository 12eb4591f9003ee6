package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"sweepguard/internal/broker"
	"sweepguard/internal/domain/models"
	"sweepguard/internal/domain/repository"
)

// ExecutorConfig holds the risk and submission tuning for the executor.
type ExecutorConfig struct {
	RiskFraction       float64       // account equity fraction risked per trade
	StopATRMult        float64       // stop distance as ATR multiple
	TakeProfitMults    []float64     // TP ladder in R multiples, nearest first
	MinStopPoints      float64       // floor for the stop distance, in points
	FallbackStopPoints float64       // stop distance when no ATR is available
	MaxSpreadPoints    float64       // refuse to trade above this spread
	MaxRetries         int           // submission attempts before FAILED
	RetryBackoff       time.Duration // base backoff, grows linearly per attempt
	SubmitTimeout      time.Duration // bounded wait per submission attempt
}

// TradeExecutor turns a valid AggregatedSignal into exactly one order.
//
// It is the single owner of the broker submission path: submissions are
// serialized by an internal mutex so no two orders are ever in flight
// concurrently. Timeouts are retried with backoff up to MaxRetries;
// parameter rejections are fatal for the cycle. A signal instance can be
// consumed at most once.
type TradeExecutor struct {
	gateway  repository.Gateway
	consumed repository.ConsumedStore
	cfg      ExecutorConfig

	submitMu sync.Mutex
}

func NewTradeExecutor(gateway repository.Gateway, consumed repository.ConsumedStore, cfg ExecutorConfig) *TradeExecutor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 10 * time.Second
	}
	if len(cfg.TakeProfitMults) == 0 {
		cfg.TakeProfitMults = []float64{1.5, 2.0, 3.0}
	}
	return &TradeExecutor{gateway: gateway, consumed: consumed, cfg: cfg}
}

// Execute runs the full decision lifecycle for one signal. It never
// returns an error: every outcome, including refusals, is an explicit
// ExecutionResult.
func (e *TradeExecutor) Execute(ctx context.Context, sig *models.AggregatedSignal, snap *models.MarketSnapshot) *models.ExecutionResult {
	if sig == nil || !sig.Valid || sig.Direction == models.DirectionNone {
		return e.rejected(sig, "signal not valid for execution")
	}

	fresh, err := e.consumed.MarkConsumed(ctx, sig.ID)
	if err != nil {
		return e.failed(sig, nil, 0, fmt.Sprintf("consumed store: %v", err))
	}
	if !fresh {
		return e.rejected(sig, "signal already consumed")
	}

	if e.cfg.MaxSpreadPoints > 0 && snap.SpreadPoints() > e.cfg.MaxSpreadPoints {
		return e.rejected(sig, fmt.Sprintf("spread too high: %.1f points", snap.SpreadPoints()))
	}

	decision, reason := e.buildDecision(ctx, sig, snap)
	if decision == nil {
		return e.rejected(sig, reason)
	}

	return e.submit(ctx, sig, decision)
}

// buildDecision computes stops and position size. A nil decision with a
// reason means the trade is rejected without touching the broker.
func (e *TradeExecutor) buildDecision(ctx context.Context, sig *models.AggregatedSignal, snap *models.MarketSnapshot) (*models.TradeDecision, string) {
	info := snap.Info
	point := info.Point
	if point <= 0 {
		return nil, "symbol info missing point size"
	}

	entry := sig.Entry
	switch sig.Direction {
	case models.DirectionBuy:
		if snap.Ask > 0 {
			entry = snap.Ask
		}
	case models.DirectionSell:
		if snap.Bid > 0 {
			entry = snap.Bid
		}
	}
	if entry <= 0 {
		return nil, "no usable entry price"
	}

	stopDist := sig.ATR * e.cfg.StopATRMult
	if sig.ATR <= 0 {
		stopDist = e.cfg.FallbackStopPoints * point
	}
	stopDist = math.Max(stopDist, e.cfg.MinStopPoints*point)
	if stopDist <= 0 {
		return nil, "zero stop distance"
	}

	var sl float64
	tps := make([]float64, 0, len(e.cfg.TakeProfitMults))
	if sig.Direction == models.DirectionBuy {
		sl = entry - stopDist
		for _, m := range e.cfg.TakeProfitMults {
			tps = append(tps, entry+stopDist*m)
		}
	} else {
		sl = entry + stopDist
		for _, m := range e.cfg.TakeProfitMults {
			tps = append(tps, entry-stopDist*m)
		}
	}

	acct, err := e.gateway.Account(ctx)
	if err != nil {
		return nil, fmt.Sprintf("account info unavailable: %v", err)
	}
	equity := acct.Equity
	if equity <= 0 {
		equity = acct.Balance
	}

	riskAmount := equity * e.cfg.RiskFraction
	tickSize := info.TickSize
	if tickSize <= 0 {
		tickSize = point
	}
	if info.TickValue <= 0 {
		return nil, "symbol info missing tick value"
	}
	lossPerLot := stopDist / tickSize * info.TickValue
	if lossPerLot <= 0 {
		return nil, "zero risk per lot"
	}

	volume := riskAmount / lossPerLot
	if info.VolumeStep > 0 {
		volume = math.Floor(volume/info.VolumeStep) * info.VolumeStep
	}
	if info.VolumeMax > 0 {
		volume = math.Min(volume, info.VolumeMax)
	}
	if volume < info.VolumeMin || volume <= 0 {
		return nil, fmt.Sprintf("position size %.4f below broker minimum %.4f", volume, info.VolumeMin)
	}

	return &models.TradeDecision{
		SignalID:    sig.ID,
		Symbol:      sig.Symbol,
		Direction:   sig.Direction,
		Volume:      volume,
		Entry:       entry,
		StopLoss:    sl,
		TakeProfits: tps,
		RiskAmount:  riskAmount,
	}, ""
}

// submit drives PENDING -> SUBMITTED -> terminal, retrying timeouts with
// linear backoff. Once a submission is in flight it completes its
// timeout/retry protocol even if the outer loop was cancelled.
func (e *TradeExecutor) submit(ctx context.Context, sig *models.AggregatedSignal, decision *models.TradeDecision) *models.ExecutionResult {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	req := models.OrderRequest{
		Symbol:    decision.Symbol,
		Direction: decision.Direction,
		Volume:    decision.Volume,
		Price:     decision.Entry,
		StopLoss:  decision.StopLoss,
		Comment:   fmt.Sprintf("sweepguard score=%.1f", sig.TotalScore),
	}
	if len(decision.TakeProfits) > 0 {
		req.TakeProfit = decision.TakeProfits[0]
	}

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.SubmitTimeout)
		res, err := e.gateway.SubmitOrder(attemptCtx, req)
		cancel()

		if err == nil {
			return e.fromResult(sig, decision, attempt, res)
		}
		if errors.Is(err, broker.ErrRejected) {
			reason := res.RejectionReason
			if reason == "" {
				reason = err.Error()
			}
			r := e.rejected(sig, reason)
			r.Decision = decision
			r.Attempts = attempt
			return r
		}
		// timeouts and disconnects are transient
		lastErr = err
		if attempt < e.cfg.MaxRetries {
			sleep(ctx, time.Duration(attempt)*e.cfg.RetryBackoff)
		}
	}

	return e.failed(sig, decision, e.cfg.MaxRetries, fmt.Sprintf("max retries exhausted: %v", lastErr))
}

func (e *TradeExecutor) fromResult(sig *models.AggregatedSignal, decision *models.TradeDecision, attempts int, res models.OrderResult) *models.ExecutionResult {
	status := res.Status
	if !status.Terminal() {
		status = models.OrderFilled
	}
	return &models.ExecutionResult{
		SignalID:  sig.ID,
		Status:    status,
		Reason:    res.RejectionReason,
		OrderID:   res.OrderID,
		FillPrice: res.FillPrice,
		Volume:    res.FilledVolume,
		Attempts:  attempts,
		Decision:  decision,
		Timestamp: time.Now().UTC(),
	}
}

func (e *TradeExecutor) rejected(sig *models.AggregatedSignal, reason string) *models.ExecutionResult {
	r := &models.ExecutionResult{
		Status:    models.OrderRejected,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	if sig != nil {
		r.SignalID = sig.ID
	}
	return r
}

func (e *TradeExecutor) failed(sig *models.AggregatedSignal, decision *models.TradeDecision, attempts int, reason string) *models.ExecutionResult {
	r := &models.ExecutionResult{
		Status:    models.OrderFailed,
		Reason:    reason,
		Attempts:  attempts,
		Decision:  decision,
		Timestamp: time.Now().UTC(),
	}
	if sig != nil {
		r.SignalID = sig.ID
	}
	return r
}

// sleep waits for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
