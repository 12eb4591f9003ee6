package usecase

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sweepguard/internal/analyzer"
	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// AggregatorConfig tunes the validity gate and per-analyzer weights.
// Weights default to 1.0 for analyzers not present in the map.
type AggregatorConfig struct {
	Threshold float64            // minimum weighted total for a valid signal
	MinAgree  int                // minimum analyzers voting the winning direction
	Weights   map[string]float64 // by analyzer name
	Floors    map[string]float64 // per-analyzer minimum; below it the vote is neutralized
	ATRPeriod int
}

// SignalAggregator fans the snapshot out to every registered analyzer,
// joins the scores into one weighted total and applies the validity gate.
// It has no side effects beyond the returned signal: no logging, no
// trading, no persistence.
type SignalAggregator struct {
	analyzers []analyzer.Analyzer
	cfg       AggregatorConfig
	baseTF    models.Timeframe
}

func NewSignalAggregator(analyzers []analyzer.Analyzer, cfg AggregatorConfig, baseTF models.Timeframe) *SignalAggregator {
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}
	return &SignalAggregator{analyzers: analyzers, cfg: cfg, baseTF: baseTF}
}

// MaxScore returns the weighted sum of all analyzer maxima.
func (a *SignalAggregator) MaxScore() float64 {
	total := 0.0
	for _, an := range a.analyzers {
		total += a.weight(an.Name()) * an.Max()
	}
	return total
}

// Evaluate runs one aggregation cycle over the snapshot.
//
// Analyzers are independent and side-effect free, so they run in
// parallel; results are joined before any aggregation proceeds. A fault
// (error or panic) in one analyzer degrades it to a neutral score for
// this cycle and is recorded in Degraded rather than crashing the cycle.
func (a *SignalAggregator) Evaluate(snap *models.MarketSnapshot) *models.AggregatedSignal {
	scores := make([]models.AnalyzerScore, len(a.analyzers))
	faults := make([]error, len(a.analyzers))

	var wg sync.WaitGroup
	for i, an := range a.analyzers {
		wg.Add(1)
		go func(i int, an analyzer.Analyzer) {
			defer wg.Done()
			scores[i], faults[i] = evaluateSafe(an, snap)
		}(i, an)
	}
	wg.Wait()

	var degraded []string
	total := 0.0
	votes := models.VoteCount{}
	for i, s := range scores {
		if faults[i] != nil {
			degraded = append(degraded, a.analyzers[i].Name())
		}
		// enforce the per-analyzer bound regardless of analyzer behavior
		if s.Score > s.Max {
			s.Score = s.Max
			scores[i] = s
		}
		// a component below its configured floor keeps its score but
		// loses its vote
		if floor, ok := a.cfg.Floors[s.Analyzer]; ok && s.Score < floor {
			s.Direction = models.DirectionNone
			scores[i] = s
		}
		total += a.weight(s.Analyzer) * s.Score
		switch s.Direction {
		case models.DirectionBuy:
			votes.Buy++
		case models.DirectionSell:
			votes.Sell++
		default:
			votes.Neutral++
		}
	}

	maxScore := a.MaxScore()
	if total > maxScore {
		total = maxScore
	}

	dir := models.DirectionNone
	switch {
	case votes.Buy > votes.Sell:
		dir = models.DirectionBuy
	case votes.Sell > votes.Buy:
		dir = models.DirectionSell
	}
	// exact split: NONE and invalid regardless of score

	agree := 0
	if dir == models.DirectionBuy {
		agree = votes.Buy
	} else if dir == models.DirectionSell {
		agree = votes.Sell
	}
	valid := dir != models.DirectionNone &&
		total >= a.cfg.Threshold &&
		agree >= a.cfg.MinAgree

	bars := snap.BarsFor(a.baseTF)
	entry := snap.Price()
	atr := indicator.ATR(bars, a.cfg.ATRPeriod)

	return &models.AggregatedSignal{
		ID:         uuid.NewString(),
		Symbol:     snap.Symbol,
		Timestamp:  snap.Timestamp,
		Direction:  dir,
		TotalScore: total,
		MaxScore:   maxScore,
		Threshold:  a.cfg.Threshold,
		Valid:      valid,
		Scores:     scores,
		Degraded:   degraded,
		Votes:      votes,
		Entry:      entry,
		ATR:        atr,
	}
}

func (a *SignalAggregator) weight(name string) float64 {
	if w, ok := a.cfg.Weights[name]; ok {
		return w
	}
	return 1.0
}

// evaluateSafe shields the cycle from a misbehaving analyzer.
func evaluateSafe(an analyzer.Analyzer, snap *models.MarketSnapshot) (score models.AnalyzerScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			score = models.NeutralScore(an.Name(), an.Max())
			err = fmt.Errorf("%w: %s panicked: %v", models.ErrAnalyzerFault, an.Name(), r)
		}
	}()
	score, err = an.Evaluate(snap)
	if err != nil {
		return models.NeutralScore(an.Name(), an.Max()),
			fmt.Errorf("%w: %s: %v", models.ErrAnalyzerFault, an.Name(), err)
	}
	return score, nil
}
