package analyzer

import (
	"math"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// PriceAction scores trend alignment, candlestick patterns, momentum,
// support/resistance density and volatility on the base timeframe.
//
// Weights: trend 8, patterns 7, momentum 6, support/resistance 6,
// volatility 5 (30 total). Direction follows the trend once the combined
// score clears the floor.
type PriceAction struct {
	tf          models.Timeframe
	trendPeriod int
	swingRadius int
	floor       float64
}

func NewPriceAction(tf models.Timeframe) *PriceAction {
	return &PriceAction{
		tf:          tf,
		trendPeriod: 200,
		swingRadius: 2,
		floor:       15,
	}
}

func (a *PriceAction) Name() string { return NamePriceAction }
func (a *PriceAction) Max() float64 { return MaxPriceAction }

func (a *PriceAction) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	bars := snap.BarsFor(a.tf)
	if len(bars) < a.trendPeriod {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	closes := indicator.Closes(bars)
	trendScore, trendDir := a.trend(closes)
	patterns := candlestickPatterns(bars)
	patternScore := clamp(float64(len(patterns))*(7.0/3.0), 7)
	momentum := a.momentum(closes)
	srScore := a.supportResistance(bars)
	volScore := a.volatility(bars)

	total := clamp(trendScore+patternScore+math.Abs(momentum)+srScore+volScore, a.Max())

	dir := models.DirectionNone
	if total > a.floor {
		dir = trendDir
	}

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     total,
		Max:       a.Max(),
		Direction: dir,
		Tags:      patterns,
		Metrics: map[string]float64{
			"trend":       trendScore,
			"patterns":    patternScore,
			"momentum":    momentum,
			"support_res": srScore,
			"volatility":  volScore,
		},
	}, nil
}

// trend checks EMA 20/50/200 stacking against the current price.
func (a *PriceAction) trend(closes []float64) (float64, models.Direction) {
	ema20 := indicator.Last(indicator.EMA(closes, 20))
	ema50 := indicator.Last(indicator.EMA(closes, 50))
	ema200 := indicator.Last(indicator.EMA(closes, 200))
	price := indicator.Last(closes)

	switch {
	case price > ema20 && ema20 > ema50 && ema50 > ema200:
		return 8, models.DirectionBuy
	case price < ema20 && ema20 < ema50 && ema50 < ema200:
		return 8, models.DirectionSell
	case price > ema20 && ema20 > ema50:
		return 6, models.DirectionBuy
	case price < ema20 && ema20 < ema50:
		return 6, models.DirectionSell
	default:
		return 0, models.DirectionNone
	}
}

// momentum returns a signed score in [-6, 6] from RSI extremes and MACD.
func (a *PriceAction) momentum(closes []float64) float64 {
	score := 0.0
	rsi := indicator.RSI(closes, 14)
	if rsi > 70 {
		score -= 2.5
	} else if rsi < 30 {
		score += 2.5
	}
	macd := indicator.MACD(closes, 12, 26, 9)
	if macd.MACD > macd.Signal && macd.MACD > 0 {
		score += 2.5
	} else if macd.MACD < macd.Signal && macd.MACD < 0 {
		score -= 2.5
	}
	return score
}

// supportResistance scores the density of confirmed swing levels.
func (a *PriceAction) supportResistance(bars []models.Candle) float64 {
	swings := indicator.Swings(bars, a.swingRadius)
	return clamp(float64(len(swings))*0.5, 6)
}

// volatility compares current ATR to its long-run mean.
func (a *PriceAction) volatility(bars []models.Candle) float64 {
	tr := indicator.TrueRanges(bars)
	if len(tr) == 0 {
		return 0
	}
	current := indicator.SMA(tr, 14)
	mean := indicator.SMA(tr, len(tr))
	if mean <= 0 {
		return 0
	}
	return clamp(current/mean*2.5, 5)
}

// candlestickPatterns detects a small set of reversal patterns on the
// latest bars. Returned names feed the score tags.
func candlestickPatterns(bars []models.Candle) []string {
	n := len(bars)
	if n < 3 {
		return nil
	}
	last := bars[n-1]
	prev := bars[n-2]
	first := bars[n-3]

	var out []string
	body := math.Abs(last.Close - last.Open)
	rng := last.High - last.Low
	if rng <= 0 {
		return nil
	}
	upper := last.High - math.Max(last.Open, last.Close)
	lower := math.Min(last.Open, last.Close) - last.Low

	if body <= rng*0.1 {
		out = append(out, "doji")
	}
	if lower >= body*2 && upper <= body*0.5 && body > 0 {
		out = append(out, "hammer")
	}
	if upper >= body*2 && lower <= body*0.5 && body > 0 {
		out = append(out, "shooting_star")
	}

	prevBody := math.Abs(prev.Close - prev.Open)
	engulfs := body > prevBody &&
		math.Max(last.Open, last.Close) >= math.Max(prev.Open, prev.Close) &&
		math.Min(last.Open, last.Close) <= math.Min(prev.Open, prev.Close)
	if engulfs && (last.Close > last.Open) != (prev.Close > prev.Open) {
		out = append(out, "engulfing")
	}

	firstBody := math.Abs(first.Close - first.Open)
	star := prevBody <= firstBody*0.3 && body >= firstBody*0.5
	if star && first.Close < first.Open && last.Close > last.Open {
		out = append(out, "morning_star")
	}
	if star && first.Close > first.Open && last.Close < last.Open {
		out = append(out, "evening_star")
	}
	return out
}
