package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepguard/internal/domain/models"
)

func emptySnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:    "XAUUSD",
		Timestamp: time.Date(2025, 3, 14, 13, 0, 0, 0, time.UTC),
		Bars:      map[models.Timeframe][]models.Candle{},
		Info:      models.SymbolInfo{Point: 0.01},
	}
}

func flatBars(n int, price, vol float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Bucket: time.Unix(int64(i)*300, 0),
			Open:   price, Close: price + 0.2,
			High: price + 0.25, Low: price - 0.05,
			Volume: vol,
		}
	}
	return out
}

func trendBars(n int, start, step float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		c := start + float64(i)*step
		out[i] = models.Candle{
			Bucket: time.Unix(int64(i)*300, 0),
			Open:   c - 0.8, Close: c,
			High: c + 0.1, Low: c - 0.9,
			Volume: 100,
		}
	}
	return out
}

func TestAllAnalyzersNeutralWithoutData(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	for _, an := range Default(models.TF5m, []models.Timeframe{models.TF5m, models.TF15m, models.TF1h}, 20, 50) {
		score, err := an.Evaluate(snap)
		require.NoError(t, err, an.Name())
		assertion.Zero(score.Score, an.Name())
		assertion.Equal(models.DirectionNone, score.Direction, an.Name())
		assertion.Equal(an.Max(), score.Max, an.Name())
	}
}

func TestAllAnalyzersStayWithinMax(t *testing.T) {
	assertion := assert.New(t)

	// busy synthetic market: oscillating price, uneven volume, live ticks
	bars := make([]models.Candle, 300)
	for i := range bars {
		c := 2000 + 30*math.Sin(float64(i)/9) + float64(i%7)
		bars[i] = models.Candle{
			Bucket: time.Unix(int64(i)*300, 0),
			Open:   c - 1.5, Close: c,
			High: c + 2, Low: c - 3,
			Volume: 100 + float64((i*37)%400),
		}
	}
	ticks := make([]models.Tick, 40)
	for i := range ticks {
		ticks[i] = models.Tick{Time: time.Unix(int64(i), 0), Bid: 2000, Ask: 2000.2}
	}
	snap := emptySnapshot()
	snap.Bid, snap.Ask = 2000.00, 2000.05
	snap.Ticks = ticks
	for _, tf := range []models.Timeframe{models.TF5m, models.TF15m, models.TF1h} {
		snap.Bars[tf] = bars
	}

	for _, an := range Default(models.TF5m, []models.Timeframe{models.TF5m, models.TF15m, models.TF1h}, 20, 50) {
		score, err := an.Evaluate(snap)
		require.NoError(t, err, an.Name())
		assertion.GreaterOrEqual(score.Score, 0.0, an.Name())
		assertion.LessOrEqual(score.Score, an.Max(), an.Name())
	}
}

func TestPriceActionUptrend(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = trendBars(250, 100, 1)

	score, err := NewPriceAction(models.TF5m).Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(8.0, score.Metrics["trend"], "stacked EMAs in a clean uptrend")
	// trend 8 + volatility 2.5; nothing else fires on a perfectly smooth ramp
	assertion.InDelta(10.5, score.Score, 1e-9)
	assertion.Equal(models.DirectionNone, score.Direction, "below the direction floor")
}

func TestMultiTimeframeFullConfluence(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	for _, tf := range []models.Timeframe{models.TF5m, models.TF15m, models.TF1h} {
		snap.Bars[tf] = trendBars(60, 100, 1)
	}

	an := NewMultiTimeframe([]models.Timeframe{models.TF5m, models.TF15m, models.TF1h})
	score, err := an.Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.Equal(an.Max(), score.Score, "all timeframes agree")
}

func TestMultiTimeframePartialConfluence(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = trendBars(60, 100, 1)
	snap.Bars[models.TF15m] = trendBars(60, 100, 1)
	snap.Bars[models.TF1h] = trendBars(60, 200, -1)

	an := NewMultiTimeframe([]models.Timeframe{models.TF5m, models.TF15m, models.TF1h})
	score, err := an.Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.InDelta(an.Max()*2/3, score.Score, 1e-9)
}

func TestVolumeSpikeBullish(t *testing.T) {
	assertion := assert.New(t)

	bars := flatBars(21, 100, 100)
	last := &bars[20]
	last.Volume = 400
	last.Open, last.Close = 100, 101 // bullish body

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = bars

	an := NewVolume(models.TF5m, 20)
	score, err := an.Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.Equal(an.Max(), score.Score, "4x baseline saturates the score")
	assertion.InDelta(4.0, score.Metrics["volume_ratio"], 1e-9)
}

func TestVolumeQuietMarketNeutral(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = flatBars(40, 100, 100)

	score, err := NewVolume(models.TF5m, 20).Evaluate(snap)
	require.NoError(t, err)

	assertion.Zero(score.Score)
	assertion.Equal(models.DirectionNone, score.Direction)
}

func TestStatisticalOutlierReturn(t *testing.T) {
	assertion := assert.New(t)

	bars := make([]models.Candle, 60)
	price := 100.0
	for i := range bars {
		if i == len(bars)-1 {
			price *= 1.05 // 5% jump against ~0.1% noise
		} else if i%2 == 0 {
			price *= 1.001
		} else {
			price *= 0.999
		}
		bars[i] = models.Candle{Close: price, Open: price, High: price, Low: price, Volume: 100}
	}

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = bars

	score, err := NewStatistical(models.TF5m, 50).Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.Greater(score.Score, 0.0)
	assertion.Greater(score.Metrics["z_score"], 2.0)
}

func TestVelocityAcceleratingMove(t *testing.T) {
	assertion := assert.New(t)

	bars := make([]models.Candle, 30)
	for i := range bars {
		c := 100 + 0.01*float64(i*i) // speeding up
		bars[i] = models.Candle{Close: c, Open: c, High: c, Low: c, Volume: 100}
	}
	snap := emptySnapshot()
	snap.Bars[models.TF5m] = bars

	an := NewVelocity(models.TF5m)
	score, err := an.Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.InDelta(an.Max()*0.8, score.Score, 1e-9)
}

func TestVelocitySteadyMarketNeutral(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = flatBars(30, 100, 100)

	score, err := NewVelocity(models.TF5m).Evaluate(snap)
	require.NoError(t, err)

	assertion.Zero(score.Score)
	assertion.Equal(models.DirectionNone, score.Direction)
}

func TestMicrostructureTightSpread(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = trendBars(5, 100, 1)
	snap.Bid, snap.Ask = 104.00, 104.02 // 0.02 against a 0.10 average
	ticks := make([]models.Tick, 30)
	for i := range ticks {
		ticks[i] = models.Tick{Time: time.Unix(int64(i), 0), Bid: 103.95, Ask: 104.05}
	}
	snap.Ticks = ticks

	an := NewMicrostructure(models.TF5m)
	score, err := an.Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.InDelta(an.Max()*0.72, score.Score, 1e-9)
}

func TestMicrostructureNeedsTicks(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = trendBars(5, 100, 1)
	snap.Ticks = []models.Tick{{Bid: 100, Ask: 100.1}}

	score, err := NewMicrostructure(models.TF5m).Evaluate(snap)
	require.NoError(t, err)

	assertion.Zero(score.Score)
	assertion.Equal(models.DirectionNone, score.Direction)
}

func TestSmartMoneyInstitutionalCandle(t *testing.T) {
	assertion := assert.New(t)

	bars := flatBars(60, 100, 100)
	last := &bars[59]
	last.Open, last.Close = 100, 102    // body 10x the average
	last.High, last.Low = 102.05, 99.95 // shadow within 1.2x body
	last.Volume = 300

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = bars

	score, err := NewSmartMoney(models.TF5m).Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(models.DirectionBuy, score.Direction)
	assertion.Equal(10.0, score.Metrics["institutional"])
	assertion.Equal(5.0, score.Metrics["pressure"], "every bar closes up")
}

func TestMarketContextDeterministicForSnapshot(t *testing.T) {
	assertion := assert.New(t)

	bars := make([]models.Candle, 20)
	for i := range bars {
		bars[i] = models.Candle{Open: 100, Close: 100, High: 100.5, Low: 99.5, Volume: 100}
	}
	snap := emptySnapshot() // 13:00 UTC, inside the New York session
	snap.Bars[models.TF5m] = bars

	an := NewMarketContext(models.TF5m)
	first, err := an.Evaluate(snap)
	require.NoError(t, err)
	second, err := an.Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(first.Score, second.Score, "same snapshot, same score")
	assertion.Equal(4.0, first.Metrics["session"])
	assertion.InDelta(1.0, first.Metrics["atr"], 1e-9)
}

func TestMarketContextDayWindowScalesWithTimeframe(t *testing.T) {
	assertion := assert.New(t)

	// 300 five-minute bars cover more than a day, so the previous-day
	// range check must engage even though there are far fewer than 1440
	bars := make([]models.Candle, 300)
	for i := range bars {
		bars[i] = models.Candle{Open: 100, Close: 100, High: 110, Low: 90, Volume: 100}
	}
	bars[len(bars)-1].Close = 109 // close near the prior high

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = bars

	score, err := NewMarketContext(models.TF5m).Evaluate(snap)
	require.NoError(t, err)

	assertion.Equal(5.0, score.Metrics["hl_proximity"])
}

func TestLiquidityNeedsHistory(t *testing.T) {
	assertion := assert.New(t)

	snap := emptySnapshot()
	snap.Bars[models.TF5m] = flatBars(49, 100, 100)

	score, err := NewLiquidity(models.TF5m).Evaluate(snap)
	require.NoError(t, err)

	assertion.Zero(score.Score)
	assertion.Equal(models.DirectionNone, score.Direction)
}
