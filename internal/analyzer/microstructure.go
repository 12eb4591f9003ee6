package analyzer

import (
	"sweepguard/internal/domain/models"
)

// Microstructure reads the tick buffer: a spread noticeably tighter than
// its recent average signals committed liquidity, and the last bar body
// picks the side.
type Microstructure struct {
	tf       models.Timeframe
	minTicks int
	tighten  float64 // spread must be below tighten * average spread
}

func NewMicrostructure(tf models.Timeframe) *Microstructure {
	return &Microstructure{tf: tf, minTicks: 20, tighten: 0.8}
}

func (a *Microstructure) Name() string { return NameMicrostructure }
func (a *Microstructure) Max() float64 { return MaxMicrostructure }

func (a *Microstructure) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	bars := snap.BarsFor(a.tf)
	if len(snap.Ticks) < a.minTicks || len(bars) == 0 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	sum := 0.0
	for _, t := range snap.Ticks {
		sum += t.Spread()
	}
	avgSpread := sum / float64(len(snap.Ticks))
	current := snap.Ask - snap.Bid

	score := 0.0
	dir := models.DirectionNone
	last := bars[len(bars)-1]
	if avgSpread > 0 && current < a.tighten*avgSpread {
		if last.Close > last.Open {
			dir = models.DirectionBuy
			score = a.Max() * 0.72
		} else if last.Close < last.Open {
			dir = models.DirectionSell
			score = a.Max() * 0.72
		}
	}

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     score,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"avg_spread":     avgSpread,
			"current_spread": current,
		},
	}, nil
}
