package analyzer

import (
	"math"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// Statistical flags returns that exceed a z-score band over the lookback
// window. A large positive excursion is a bullish anomaly, negative bearish.
type Statistical struct {
	tf       models.Timeframe
	lookback int
	zBand    float64
}

func NewStatistical(tf models.Timeframe, lookback int) *Statistical {
	if lookback <= 0 {
		lookback = 20
	}
	return &Statistical{tf: tf, lookback: lookback, zBand: 2}
}

func (a *Statistical) Name() string { return NameStatistical }
func (a *Statistical) Max() float64 { return MaxStatistical }

func (a *Statistical) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	closes := indicator.Closes(snap.BarsFor(a.tf))
	if len(closes) < a.lookback+1 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	rets := indicator.Returns(closes)
	sd := indicator.StdDev(rets)
	current := indicator.Last(rets)

	score := 0.0
	dir := models.DirectionNone
	z := 0.0
	if sd > 0 {
		z = current / sd
	}
	if math.Abs(z) > a.zBand {
		// score grows from the band edge, saturating at 2x the band
		score = clamp(a.Max()*(math.Abs(z)-a.zBand)/a.zBand, a.Max())
		if current > 0 {
			dir = models.DirectionBuy
		} else {
			dir = models.DirectionSell
		}
	}

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     score,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"z_score": z,
			"std_dev": sd,
		},
	}, nil
}
