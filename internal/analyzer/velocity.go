package analyzer

import (
	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// Velocity scores directional price velocity confirmed by acceleration:
// a move that is both fast and speeding up in the same direction.
type Velocity struct {
	tf     models.Timeframe
	window int
}

func NewVelocity(tf models.Timeframe) *Velocity {
	return &Velocity{tf: tf, window: 5}
}

func (a *Velocity) Name() string { return NameVelocity }
func (a *Velocity) Max() float64 { return MaxVelocity }

func (a *Velocity) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	closes := indicator.Closes(snap.BarsFor(a.tf))
	if len(closes) < a.window*4 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	// velocity: rolling mean of close-to-close deltas
	deltas := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		deltas = append(deltas, closes[i]-closes[i-1])
	}
	velNow := indicator.SMA(deltas, a.window)
	velPrev := indicator.SMA(deltas[:len(deltas)-1], a.window)
	accel := velNow - velPrev

	score := 0.0
	dir := models.DirectionNone
	if velNow > 0 && accel > 0 {
		dir = models.DirectionBuy
		score = a.Max() * 0.8
	} else if velNow < 0 && accel < 0 {
		dir = models.DirectionSell
		score = a.Max() * 0.8
	}

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     score,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"velocity":     velNow,
			"acceleration": accel,
		},
	}, nil
}
