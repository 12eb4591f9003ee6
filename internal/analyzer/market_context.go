package analyzer

import (
	"math"
	"time"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/indicator"
)

// session is a trading session window in UTC hours [start, end).
type session struct {
	name  string
	start int
	end   int
}

// MarketContext scores the trading environment rather than price itself:
// session timing (10), previous-day high/low proximity (10) and Asian-range
// breakout (5). It also publishes the current ATR in its metrics, which the
// executor uses for stop sizing.
//
// Session scoring uses the snapshot timestamp, so evaluation is
// deterministic for a given snapshot.
type MarketContext struct {
	tf        models.Timeframe
	atrPeriod int
	sessions  []session
}

func NewMarketContext(tf models.Timeframe) *MarketContext {
	return &MarketContext{
		tf:        tf,
		atrPeriod: 14,
		sessions: []session{
			{name: "asian", start: 1, end: 5},
			{name: "london", start: 6, end: 9},
			{name: "new_york", start: 11, end: 22},
		},
	}
}

func (a *MarketContext) Name() string { return NameMarketContext }
func (a *MarketContext) Max() float64 { return MaxMarketContext }

func (a *MarketContext) Evaluate(snap *models.MarketSnapshot) (models.AnalyzerScore, error) {
	bars := snap.BarsFor(a.tf)
	if len(bars) < a.atrPeriod+1 {
		return models.NeutralScore(a.Name(), a.Max()), nil
	}

	sessionScore := a.sessionTiming(snap.Timestamp)
	hlScore, hlDir := a.prevDayProximity(bars)
	asianScore, asianDir := a.asianBreakout(bars)
	atr := indicator.ATR(bars, a.atrPeriod)

	total := clamp(sessionScore+hlScore+asianScore, a.Max())
	dir := majority(models.DirectionNone, hlDir, asianDir)

	return models.AnalyzerScore{
		Analyzer:  a.Name(),
		Score:     total,
		Max:       a.Max(),
		Direction: dir,
		Metrics: map[string]float64{
			"session":        sessionScore,
			"hl_proximity":   hlScore,
			"asian_breakout": asianScore,
			"atr":            atr,
		},
	}, nil
}

// sessionTiming scores up to 10: overlaps rank highest, then active
// single sessions, plus a bump near a session open.
func (a *MarketContext) sessionTiming(ts time.Time) float64 {
	hour := ts.UTC().Hour()
	minute := ts.UTC().Minute()

	var active []session
	for _, s := range a.sessions {
		if hour >= s.start && hour < s.end {
			active = append(active, s)
		}
	}

	score := 0.0
	switch {
	case len(active) > 1:
		score += 5
		if hasSession(active, "london") && hasSession(active, "new_york") {
			score += 3
		}
	case len(active) == 1:
		if active[0].name == "asian" {
			score += 3
		} else {
			score += 4
		}
	}

	nowMins := hour*60 + minute
	for _, s := range a.sessions {
		toStart := (s.start*60 - nowMins + 1440) % 1440
		if toStart <= 30 {
			score += 2
		}
	}
	return clamp(score, 10)
}

func hasSession(ss []session, name string) bool {
	for _, s := range ss {
		if s.name == name {
			return true
		}
	}
	return false
}

// prevDayProximity scores up to 10 from the previous day's range: 5 near
// a prior extreme (sweep territory), 5 in the balanced mid-range.
func (a *MarketContext) prevDayProximity(bars []models.Candle) (float64, models.Direction) {
	day := 1440 / a.tf.Minutes() // bars covering one day
	if len(bars) < day {
		return 0, models.DirectionNone
	}

	prev := bars[len(bars)-day : len(bars)-1]
	high, low := prev[0].High, prev[0].Low
	for _, c := range prev {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	rng := high - low
	if rng <= 0 {
		return 0, models.DirectionNone
	}

	price := bars[len(bars)-1].Close
	score := 0.0
	dir := models.DirectionNone

	if math.Abs(price-high) < rng*0.1 {
		score += 5
		dir = models.DirectionSell // likely resistance
	} else if math.Abs(price-low) < rng*0.1 {
		score += 5
		dir = models.DirectionBuy // likely support
	}

	pos := (price - low) / rng
	if pos >= 0.4 && pos <= 0.6 {
		score += 5
	}
	return clamp(score, 10), dir
}

// asianBreakout scores up to 5 when price has broken the last Asian
// session range, more for a decisive break.
func (a *MarketContext) asianBreakout(bars []models.Candle) (float64, models.Direction) {
	// the window runs from 10h back to 4h back, roughly the last Asian
	// session as seen from the London/NY day
	from := 600 / a.tf.Minutes()
	to := 240 / a.tf.Minutes()
	if len(bars) < from || to == 0 {
		return 0, models.DirectionNone
	}

	window := bars[len(bars)-from : len(bars)-to]
	high, low := window[0].High, window[0].Low
	for _, c := range window {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	rng := high - low
	if rng <= 0 {
		return 0, models.DirectionNone
	}

	price := bars[len(bars)-1].Close
	switch {
	case price > high:
		if (price-high)/rng > 0.5 {
			return 5, models.DirectionBuy
		}
		return 2, models.DirectionBuy
	case price < low:
		if (low-price)/rng > 0.5 {
			return 5, models.DirectionSell
		}
		return 2, models.DirectionSell
	default:
		return 0, models.DirectionNone
	}
}
