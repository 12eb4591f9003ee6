package analyzer

import (
	"math"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// SmartMoney looks for institutional footprints: outsized committed
// candles (15), price sitting on a high-volume node (10) and one-sided
// buy/sell pressure (5).
type SmartMoney struct {
	tf          models.Timeframe
	profileBins int
	pressure    float64
}

func NewSmartMoney(tf models.Timeframe) *SmartMoney {
	return &SmartMoney{tf: tf, profileBins: 20, pressure: 0.65}
}

func (a *SmartMoney) Name() string { return NameSmartMoney }
func (a *SmartMoney) Max() float64 { return MaxSmartMoney }

func (a *SmartMoney) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	bars := snap.BarsFor(a.tf)
	if len(bars) < 50 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	instScore, instDir := a.institutionalCandles(bars)
	nodeScore, nodeDir := a.volumeProfile(bars)
	pressScore, pressDir := a.pressureRatio(bars)

	total := clamp(instScore+nodeScore+pressScore, a.Max())
	dir := majority(instDir, nodeDir, pressDir)

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     total,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"institutional": instScore,
			"volume_node":   nodeScore,
			"pressure":      pressScore,
		},
	}, nil
}

// institutionalCandles scores the last three bars for large bodies with
// volume confirmation and clean rejection (small shadows). 15 max.
func (a *SmartMoney) institutionalCandles(bars []models.Candle) (float64, models.Direction) {
	const lookback = 20
	score := 0.0
	dir := models.DirectionNone

	for i := len(bars) - 3; i < len(bars); i++ {
		window := bars[i-lookback : i]
		avgBody, avgVol := 0.0, 0.0
		for _, c := range window {
			avgBody += math.Abs(c.Close - c.Open)
			avgVol += c.Volume
		}
		avgBody /= lookback
		avgVol /= lookback

		c := bars[i]
		body := math.Abs(c.Close - c.Open)
		shadow := c.High - c.Low
		candleScore := 0.0
		if avgBody > 0 && body > 2*avgBody {
			candleScore += 4
		}
		if avgVol > 0 && c.Volume > 1.5*avgVol {
			candleScore += 3
		}
		if body > 0 && shadow < 1.2*body {
			candleScore += 3
		}
		if candleScore > 0 {
			score += candleScore
			if c.Close > c.Open {
				dir = models.DirectionBuy
			} else if c.Close < c.Open {
				dir = models.DirectionSell
			}
		}
	}
	return clamp(score, 15), dir
}

// volumeProfile bins closes by price and checks whether the current price
// sits in a high-volume node, with the last bar body deciding acceptance
// direction. 10 max.
func (a *SmartMoney) volumeProfile(bars []models.Candle) (float64, models.Direction) {
	low, high := bars[0].Low, bars[0].High
	for _, c := range bars {
		low = math.Min(low, c.Low)
		high = math.Max(high, c.High)
	}
	rng := high - low
	if rng <= 0 {
		return 0, models.DirectionNone
	}

	binVol := make([]float64, a.profileBins)
	binOf := func(price float64) int {
		b := int((price - low) / rng * float64(a.profileBins))
		if b >= a.profileBins {
			b = a.profileBins - 1
		}
		if b < 0 {
			b = 0
		}
		return b
	}
	for _, c := range bars {
		binVol[binOf(c.Close)] += c.Volume
	}

	mean := 0.0
	for _, v := range binVol {
		mean += v
	}
	mean /= float64(a.profileBins)
	sd := indicator.StdDev(binVol)

	last := bars[len(bars)-1]
	current := binOf(last.Close)
	if binVol[current] <= mean+sd {
		return 0, models.DirectionNone
	}

	score := 5.0
	dir := models.DirectionNone
	if last.Close > last.Open {
		score += 5
		dir = models.DirectionBuy
	} else if last.Close < last.Open {
		score += 5
		dir = models.DirectionSell
	}
	return clamp(score, 10), dir
}

// pressureRatio compares up-bar volume to down-bar volume. 5 max.
func (a *SmartMoney) pressureRatio(bars []models.Candle) (float64, models.Direction) {
	buyVol, sellVol := 0.0, 0.0
	for _, c := range bars {
		if c.Close > c.Open {
			buyVol += c.Volume
		} else if c.Close < c.Open {
			sellVol += c.Volume
		}
	}
	total := buyVol + sellVol
	if total <= 0 {
		return 0, models.DirectionNone
	}
	ratio := buyVol / total
	switch {
	case ratio > a.pressure:
		return 5, models.DirectionBuy
	case ratio < 1-a.pressure:
		return 5, models.DirectionSell
	default:
		return 0, models.DirectionNone
	}
}
