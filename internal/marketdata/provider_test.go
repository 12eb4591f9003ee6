package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepguard/internal/domain/models"
)

type fixedCandles struct {
	bars []models.Candle
	err  error
}

func (f *fixedCandles) LatestCandles(_ context.Context, _ string, _ int, _ models.Timeframe) ([]models.Candle, error) {
	return f.bars, f.err
}

func flatBars(n int, close float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Bucket: time.Unix(int64(i)*300, 0),
			Open:   close,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: 100,
		}
	}
	return out
}

func TestGetSnapshotUsesLiveTick(t *testing.T) {
	assertion := assert.New(t)

	ticks := NewTickBuffer(8)
	ticks.Add(models.Tick{Time: time.Now().UTC(), Bid: 2400.1, Ask: 2400.3})
	p := NewProvider(&fixedCandles{bars: flatBars(60, 2399)}, ticks, models.SymbolInfo{Symbol: "XAUUSD"}, ProviderConfig{
		MaxStaleness: time.Minute,
	})

	snap, err := p.GetSnapshot(context.Background(), "XAUUSD", []models.Timeframe{models.TF5m})
	require.NoError(t, err)
	assertion.Equal(2400.1, snap.Bid)
	assertion.Equal(2400.3, snap.Ask)
}

func TestGetSnapshotStaleTickFallsBackToLastClose(t *testing.T) {
	assertion := assert.New(t)

	ticks := NewTickBuffer(8)
	ticks.Add(models.Tick{Time: time.Now().UTC().Add(-10 * time.Minute), Bid: 2400.1, Ask: 2400.3})
	p := NewProvider(&fixedCandles{bars: flatBars(60, 2399)}, ticks, models.SymbolInfo{Symbol: "XAUUSD"}, ProviderConfig{
		MaxStaleness: time.Minute,
	})

	snap, err := p.GetSnapshot(context.Background(), "XAUUSD", []models.Timeframe{models.TF5m})
	require.NoError(t, err)
	assertion.Equal(2399.0, snap.Bid)
	assertion.Equal(2399.0, snap.Ask)
}

func TestGetSnapshotNoTicksFallsBackToLastClose(t *testing.T) {
	assertion := assert.New(t)

	p := NewProvider(&fixedCandles{bars: flatBars(60, 2399)}, NewTickBuffer(8), models.SymbolInfo{Symbol: "XAUUSD"}, ProviderConfig{})

	snap, err := p.GetSnapshot(context.Background(), "XAUUSD", []models.Timeframe{models.TF5m})
	require.NoError(t, err)
	assertion.Equal(2399.0, snap.Bid)
	assertion.Equal(2399.0, snap.Ask)
}

func TestGetSnapshotTooFewBars(t *testing.T) {
	assertion := assert.New(t)

	p := NewProvider(&fixedCandles{bars: flatBars(10, 2399)}, NewTickBuffer(8), models.SymbolInfo{Symbol: "XAUUSD"}, ProviderConfig{})

	_, err := p.GetSnapshot(context.Background(), "XAUUSD", []models.Timeframe{models.TF5m})
	assertion.ErrorIs(err, models.ErrDataUnavailable)
}
