// Package analyzer contains the nine independent market analyzers.
//
// Every analyzer is a pure function over the MarketSnapshot (plus its own
// construction-time parameters): no I/O, no blocking, no mutable state
// shared between cycles. Insufficient data produces a zero/neutral score,
// never an error, so the aggregator always receives a complete score set.
package analyzer

import "sweepguard/internal/domain/models"

// Analyzer scores one aspect of market structure for a single cycle.
type Analyzer interface {
	// Name identifies the analyzer in scores, config and logs.
	Name() string

	// Max is the upper bound of the score this analyzer can emit.
	Max() float64

	// Evaluate produces the analyzer's score for the snapshot.
	// An error marks the analyzer degraded for this cycle; the aggregator
	// substitutes a neutral score and continues.
	Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error)
}

// Score maxima per analyzer. They sum to 200, the aggregator's full scale.
const (
	MaxPriceAction    = 30.0
	MaxMultiTimeframe = 35.0
	MaxVolume         = 20.0
	MaxStatistical    = 20.0
	MaxVelocity       = 25.0
	MaxMicrostructure = 25.0
	MaxMarketContext  = 25.0
	MaxSmartMoney     = 30.0
	MaxLiquidity      = 35.0
)

// Analyzer names as used in configuration weights and score output.
const (
	NamePriceAction    = "price_action"
	NameMultiTimeframe = "multi_tf"
	NameVolume         = "volume"
	NameStatistical    = "statistical"
	NameVelocity       = "velocity"
	NameMicrostructure = "microstructure"
	NameMarketContext  = "market_context"
	NameSmartMoney     = "smart_money"
	NameLiquidity      = "liquidity"
)

// majority resolves a direction from component votes: strict majority wins,
// ties stay neutral.
func majority(dirs ...models.Direction) models.Direction {
	buy, sell := 0, 0
	for _, d := range dirs {
		switch d {
		case models.DirectionBuy:
			buy++
		case models.DirectionSell:
			sell++
		}
	}
	switch {
	case buy > sell:
		return models.DirectionBuy
	case sell > buy:
		return models.DirectionSell
	default:
		return models.DirectionNone
	}
}

func clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}
