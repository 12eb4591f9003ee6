package models

import "time"

// Direction is an analyzer (or signal) directional bias.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionNone Direction = "NONE"
)

// Opposite returns the inverse direction; NONE maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	default:
		return DirectionNone
	}
}

// AnalyzerScore is one analyzer's contribution for a single cycle.
// Score is always within [0, Max]. Created fresh each cycle, never mutated.
type AnalyzerScore struct {
	Analyzer  string
	Score     float64
	Max       float64
	Direction Direction
	Metrics   map[string]float64
	Tags      []string // e.g. detected pattern names
}

// NeutralScore builds the zero contribution used for short data and faults.
func NeutralScore(analyzer string, max float64) AnalyzerScore {
	return AnalyzerScore{
		Analyzer:  analyzer,
		Score:     0,
		Max:       max,
		Direction: DirectionNone,
	}
}

// VoteCount summarizes directional agreement across analyzers.
type VoteCount struct {
	Buy     int
	Sell    int
	Neutral int
}

// AggregatedSignal is the immutable output of one aggregation cycle,
// consumed exactly once by the executor or discarded.
type AggregatedSignal struct {
	ID         string
	Symbol     string
	Timestamp  time.Time
	Direction  Direction
	TotalScore float64
	MaxScore   float64
	Threshold  float64
	Valid      bool
	Scores     []AnalyzerScore
	Degraded   []string // analyzers replaced by a neutral score this cycle
	Votes      VoteCount
	Entry      float64
	ATR        float64
}

// Agreement returns how many analyzers voted with the signal direction.
func (s *AggregatedSignal) Agreement() int {
	switch s.Direction {
	case DirectionBuy:
		return s.Votes.Buy
	case DirectionSell:
		return s.Votes.Sell
	default:
		return 0
	}
}
