// Package indicator provides pure technical indicator primitives over
// price series. All functions return zero values on insufficient data
// instead of failing, so callers can degrade to neutral scores.
package indicator

import (
	"math"

	"sweepguard/internal/domain/models"
)

// Closes extracts the close series from candles.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume series from candles.
func Volumes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// SMA computes the simple moving average of the trailing window.
// Returns 0 when fewer than period values are available.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// EMA computes the exponential moving average series, seeded with an SMA
// over the first period values. The first period-1 entries are zero.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// Last returns the final element of a series, or 0 when empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

// RSI computes the Wilder relative strength index for the latest bar.
// Returns 50 (neutral) when fewer than period+1 values are available.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return 50
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the latest MACD line, signal line and histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes MACD(fast, slow, signal) for the latest bar.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	if len(values) < slow+signal {
		return MACDResult{}
	}
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	macdLine := make([]float64, 0, len(values)-slow+1)
	for i := slow - 1; i < len(values); i++ {
		macdLine = append(macdLine, fastEMA[i]-slowEMA[i])
	}
	sigSeries := EMA(macdLine, signal)
	m := Last(macdLine)
	s := Last(sigSeries)
	return MACDResult{MACD: m, Signal: s, Histogram: m - s}
}

// TrueRanges computes the true range series (length len(candles)-1).
func TrueRanges(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		out = append(out, math.Max(hl, math.Max(hc, lc)))
	}
	return out
}

// ATR computes the average true range over the trailing period.
func ATR(candles []models.Candle, period int) float64 {
	tr := TrueRanges(candles)
	return SMA(tr, period)
}

// Returns computes simple percentage returns r_t = C_t/C_{t-1} - 1.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// StdDev computes the sample standard deviation of the series.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, v := range values {
		sum += v
		sum2 += v * v
	}
	mean := sum / float64(n)
	variance := (sum2 - float64(n)*mean*mean) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// SwingPoint marks a local extreme in the price series.
type SwingPoint struct {
	Index int
	Price float64
	High  bool // true for swing high, false for swing low
}

// Swings finds local highs and lows confirmed by radius bars on each side.
func Swings(candles []models.Candle, radius int) []SwingPoint {
	if radius < 1 || len(candles) < 2*radius+1 {
		return nil
	}
	out := make([]SwingPoint, 0, 8)
	for i := radius; i < len(candles)-radius; i++ {
		isHigh, isLow := true, true
		for j := i - radius; j <= i+radius; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			out = append(out, SwingPoint{Index: i, Price: candles[i].High, High: true})
		}
		if isLow {
			out = append(out, SwingPoint{Index: i, Price: candles[i].Low, High: false})
		}
	}
	return out
}
