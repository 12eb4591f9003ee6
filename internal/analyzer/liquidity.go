package analyzer

import (
	"math"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// Liquidity maps where resting stops are likely to pool: recent swing
// extremes (stop clusters, 15), round-number magnets (10) and swing-point
// proximity (10). Price hovering just below a cluster is where a sweep
// would print, so proximity to a cluster above reads bearish and below
// reads bullish.
type Liquidity struct {
	tf           models.Timeframe
	swingRadius  int
	clusterRange float64 // points around a level counted as "at" it
	roundRange   float64
}

func NewLiquidity(tf models.Timeframe) *Liquidity {
	return &Liquidity{tf: tf, swingRadius: 10, clusterRange: 5, roundRange: 5}
}

func (a *Liquidity) Name() string { return NameLiquidity }
func (a *Liquidity) Max() float64 { return MaxLiquidity }

func (a *Liquidity) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	bars := snap.BarsFor(a.tf)
	if len(bars) < 50 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}
	point := snap.Info.Point
	if point <= 0 {
		point = 1
	}

	clusterScore, clusterDir := a.stopClusters(bars, point)
	roundScore, roundDir := a.roundNumbers(bars, point)
	swingScore, swingDir := a.swingProximity(bars, point)

	total := clamp(clusterScore+roundScore+swingScore, a.Max())
	dir := majority(clusterDir, roundDir, swingDir)

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     total,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"stop_clusters": clusterScore,
			"round_numbers": roundScore,
			"swing_points":  swingScore,
		},
	}, nil
}

// stopClusters scores proximity to recent confirmed swing extremes, where
// stop orders accumulate. 15 max.
func (a *Liquidity) stopClusters(bars []models.Candle, point float64) (float64, models.Direction) {
	swings := indicator.Swings(bars[len(bars)-50:], a.swingRadius)
	price := bars[len(bars)-1].Close

	score := 0.0
	dir := models.DirectionNone
	for _, s := range swings {
		distPts := math.Abs(price-s.Price) / point
		if distPts >= a.clusterRange {
			continue
		}
		score += math.Min(5, a.clusterRange-distPts)
		if s.High {
			dir = models.DirectionSell
		} else {
			dir = models.DirectionBuy
		}
	}
	return clamp(score, 15), dir
}

// roundNumbers scores magnetism toward psychological levels: majors every
// 100 points, minors every 50. 10 max.
func (a *Liquidity) roundNumbers(bars []models.Candle, point float64) (float64, models.Direction) {
	price := bars[len(bars)-1].Close
	base := math.Floor(price)

	type level struct {
		price  float64
		weight float64
	}
	var levels []level
	for i := -2; i <= 2; i++ {
		levels = append(levels, level{price: base + float64(i*100), weight: 4})
	}
	for i := -4; i <= 4; i++ {
		levels = append(levels, level{price: base + float64(i*50), weight: 2})
	}

	score := 0.0
	dir := models.DirectionNone
	for _, lv := range levels {
		distPts := math.Abs(price-lv.price) / point
		if distPts >= a.roundRange {
			continue
		}
		score += lv.weight * (1 - distPts/a.roundRange)

		// direction from the most recent reaction at the level
		for i := len(bars) - 1; i >= 0 && i >= len(bars)-50; i-- {
			if math.Abs(bars[i].Close-lv.price)/point < 2 {
				if bars[i].Close > bars[i].Open {
					dir = models.DirectionBuy
				} else if bars[i].Close < bars[i].Open {
					dir = models.DirectionSell
				}
				break
			}
		}
	}
	return clamp(score, 10), dir
}

// swingProximity scores strong recent swings near price: below a swing
// high reads bearish, above a swing low bullish. 10 max.
func (a *Liquidity) swingProximity(bars []models.Candle, point float64) (float64, models.Direction) {
	const minStrength = 0.03 // 3% excursion from the swing
	swings := indicator.Swings(bars[len(bars)-50:], a.swingRadius)
	price := bars[len(bars)-1].Close

	score := 0.0
	dir := models.DirectionNone
	for _, s := range swings {
		if s.Price <= 0 {
			continue
		}
		strength := math.Abs(price-s.Price) / s.Price
		if strength < minStrength/10 { // intraday scale
			continue
		}
		if math.Abs(price-s.Price)/point >= 10 {
			continue
		}
		score += strength * 100
		if s.High && price < s.Price {
			dir = models.DirectionSell
		} else if !s.High && price > s.Price {
			dir = models.DirectionBuy
		}
	}
	return clamp(score, 10), dir
}
