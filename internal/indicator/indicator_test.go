package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sweepguard/internal/domain/models"
)

func flatCandles(n int, price float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Bucket: time.Unix(int64(i)*60, 0),
			Open:   price, High: price, Low: price, Close: price,
			Volume: 100,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	assertion := assert.New(t)

	assertion.Equal(3.0, SMA([]float64{1, 2, 3, 4}, 3))
	assertion.Zero(SMA([]float64{1, 2}, 3), "short series yields zero")
	assertion.Zero(SMA(nil, 5))
}

func TestEMASeededWithSMA(t *testing.T) {
	assertion := assert.New(t)

	series := EMA([]float64{1, 2, 3, 4, 5}, 3)
	assertion.Len(series, 5)
	assertion.Zero(series[0])
	assertion.Zero(series[1])
	assertion.Equal(2.0, series[2], "seed is SMA of the first period values")
	assertion.Greater(series[4], series[3], "rising input keeps the EMA rising")

	assertion.Nil(EMA([]float64{1, 2}, 3))
}

func TestRSIExtremes(t *testing.T) {
	assertion := assert.New(t)

	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	assertion.Equal(100.0, RSI(up, 14))

	down := make([]float64, 15)
	for i := range down {
		down[i] = float64(100 - i)
	}
	assertion.Zero(RSI(down, 14))

	assertion.Equal(50.0, RSI([]float64{1, 2}, 14), "insufficient data is neutral")
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	assertion := assert.New(t)

	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 42
	}
	res := MACD(flat, 12, 26, 9)
	assertion.Zero(res.MACD)
	assertion.Zero(res.Histogram)

	assertion.Zero(MACD([]float64{1, 2, 3}, 12, 26, 9).MACD)
}

func TestATR(t *testing.T) {
	assertion := assert.New(t)

	candles := flatCandles(20, 100)
	for i := range candles {
		candles[i].High = 101
		candles[i].Low = 99
	}
	assertion.InDelta(2.0, ATR(candles, 14), 1e-9)
	assertion.Zero(ATR(candles[:2], 14))
}

func TestReturnsAndStdDev(t *testing.T) {
	assertion := assert.New(t)

	r := Returns([]float64{100, 110, 99})
	assertion.Len(r, 2)
	assertion.InDelta(0.10, r[0], 1e-9)
	assertion.InDelta(-0.10, r[1], 1e-9)

	assertion.Zero(StdDev([]float64{5}))
	assertion.InDelta(1.0, StdDev([]float64{1, 2, 3}), 1e-9)
}

func TestSwingsFindLocalExtremes(t *testing.T) {
	assertion := assert.New(t)

	candles := flatCandles(11, 100)
	candles[5].High = 110 // single peak in the middle
	candles[5].Low = 100

	swings := Swings(candles, 2)
	var highs []SwingPoint
	for _, s := range swings {
		if s.High {
			highs = append(highs, s)
		}
	}
	assertion.Len(highs, 1)
	assertion.Equal(5, highs[0].Index)
	assertion.Equal(110.0, highs[0].Price)

	assertion.Nil(Swings(candles[:3], 2), "not enough bars to confirm")
}
