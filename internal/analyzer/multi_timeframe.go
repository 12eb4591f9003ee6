package analyzer

import (
	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// MultiTimeframe scores trend confluence: each configured timeframe votes
// via its MA20/MA50 relation, and the score scales with how many
// timeframes agree with the winning side.
type MultiTimeframe struct {
	tfs []models.Timeframe
}

func NewMultiTimeframe(tfs []models.Timeframe) *MultiTimeframe {
	if len(tfs) == 0 {
		tfs = []models.Timeframe{models.TF1m, models.TF5m, models.TF15m}
	}
	return &MultiTimeframe{tfs: tfs}
}

func (a *MultiTimeframe) Name() string { return NameMultiTimeframe }
func (a *MultiTimeframe) Max() float64 { return MaxMultiTimeframe }

func (a *MultiTimeframe) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	buy, sell, voted := 0, 0, 0
	for _, tf := range a.tfs {
		closes := indicator.Closes(snap.BarsFor(tf))
		if len(closes) < 50 {
			continue
		}
		voted++
		ma20 := indicator.SMA(closes, 20)
		ma50 := indicator.SMA(closes, 50)
		if ma20 > ma50 {
			buy++
		} else if ma20 < ma50 {
			sell++
		}
	}
	if voted == 0 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	dir := models.DirectionNone
	agree := 0
	switch {
	case buy > sell:
		dir, agree = models.DirectionBuy, buy
	case sell > buy:
		dir, agree = models.DirectionSell, sell
	}

	score := 0.0
	if dir != models.DirectionNone {
		score = clamp(a.Max()*float64(agree)/float64(len(a.tfs)), a.Max())
	}

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     score,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"timeframes": float64(voted),
			"agreeing":   float64(agree),
		},
	}, nil
}
