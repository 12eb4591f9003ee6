package marketdata

import (
	"context"
	"fmt"
	"time"

	"sweepguard/internal/domain/models"
)

// ProviderConfig tunes snapshot assembly.
type ProviderConfig struct {
	Lookback     int // bars per timeframe
	MinBars      int // below this the snapshot is unusable
	MaxStaleness time.Duration
}

// CandleSource serves OHLCV history, ascending by bucket.
type CandleSource interface {
	LatestCandles(ctx context.Context, symbol string, n int, tf models.Timeframe) ([]models.Candle, error)
}

// Provider assembles per-cycle market snapshots from the candle store and
// the live tick buffer. It implements repository.SnapshotProvider.
type Provider struct {
	candles CandleSource
	ticks   *TickBuffer
	info    models.SymbolInfo
	cfg     ProviderConfig
}

func NewProvider(candles CandleSource, ticks *TickBuffer, info models.SymbolInfo, cfg ProviderConfig) *Provider {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 1500
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = 50
	}
	return &Provider{candles: candles, ticks: ticks, info: info, cfg: cfg}
}

func (p *Provider) GetSnapshot(ctx context.Context, symbol string, tfs []models.Timeframe) (*models.MarketSnapshot, error) {
	if len(tfs) == 0 {
		tfs = []models.Timeframe{models.TF5m}
	}

	bars := make(map[models.Timeframe][]models.Candle, len(tfs))
	for _, tf := range tfs {
		cs, err := p.candles.LatestCandles(ctx, symbol, p.cfg.Lookback, tf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", models.ErrDataUnavailable, symbol, tf, err)
		}
		bars[tf] = cs
	}

	base := tfs[0]
	if len(bars[base]) < p.cfg.MinBars {
		return nil, fmt.Errorf("%w: only %d %s bars for %s", models.ErrDataUnavailable, len(bars[base]), base, symbol)
	}

	snap := &models.MarketSnapshot{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Bars:      bars,
		Ticks:     p.ticks.Snapshot(),
		Info:      p.info,
	}

	last, ok := p.ticks.Latest()
	stale := ok && p.cfg.MaxStaleness > 0 && snap.Timestamp.Sub(last.Time) > p.cfg.MaxStaleness
	if ok && !stale {
		snap.Bid = last.Bid
		snap.Ask = last.Ask
	} else {
		// no live tick, or a stale one: quote off the last close
		closes := bars[base]
		c := closes[len(closes)-1].Close
		snap.Bid = c
		snap.Ask = c
	}

	return snap, nil
}
