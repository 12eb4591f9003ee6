package analyzer

import (
	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// Volume detects tick-volume spikes against a rolling baseline; the bar
// body gives the direction.
type Volume struct {
	tf       models.Timeframe
	lookback int
	spike    float64 // spike multiple over the rolling mean
}

func NewVolume(tf models.Timeframe, lookback int) *Volume {
	if lookback <= 0 {
		lookback = 20
	}
	return &Volume{tf: tf, lookback: lookback, spike: 1.5}
}

func (a *Volume) Name() string { return NameVolume }
func (a *Volume) Max() float64 { return MaxVolume }

func (a *Volume) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	bars := snap.BarsFor(a.tf)
	if len(bars) < a.lookback+1 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	vols := indicator.Volumes(bars)
	baseline := indicator.SMA(vols[:len(vols)-1], a.lookback)
	current := vols[len(vols)-1]
	last := bars[len(bars)-1]

	score := 0.0
	dir := models.DirectionNone
	ratio := 0.0
	if baseline > 0 {
		ratio = current / baseline
	}
	if baseline > 0 && current > a.spike*baseline {
		// scale with spike intensity up to 2x the trigger ratio
		score = clamp(a.Max()*(ratio-1)/(2*a.spike-1), a.Max())
		if last.Close > last.Open {
			dir = models.DirectionBuy
		} else if last.Close < last.Open {
			dir = models.DirectionSell
		} else {
			score = 0
		}
	}

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     score,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"volume_ratio": ratio,
			"baseline":     baseline,
		},
	}, nil
}
