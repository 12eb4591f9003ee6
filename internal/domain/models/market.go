package models

import "time"

// Candle represents one OHLCV bar, ascending by Bucket within a snapshot.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tick is a single top-of-book observation.
type Tick struct {
	Time   time.Time
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64
}

// Spread returns the bid/ask spread in price units.
func (t Tick) Spread() float64 { return t.Ask - t.Bid }

// SymbolInfo carries the instrument contract parameters needed for sizing.
type SymbolInfo struct {
	Symbol     string
	Point      float64 // smallest price increment
	TickSize   float64
	TickValue  float64 // account-currency value of one tick for one lot
	VolumeMin  float64
	VolumeMax  float64
	VolumeStep float64
}

// MarketSnapshot is the immutable per-cycle input to every analyzer.
// Bars are ascending by time. Analyzers must treat it as read-only.
type MarketSnapshot struct {
	Symbol    string
	Timestamp time.Time
	Bid       float64
	Ask       float64
	Bars      map[Timeframe][]Candle
	Ticks     []Tick
	Info      SymbolInfo
}

// BarsFor returns the candles for tf, or nil when the timeframe is absent.
func (s *MarketSnapshot) BarsFor(tf Timeframe) []Candle {
	if s == nil || s.Bars == nil {
		return nil
	}
	return s.Bars[tf]
}

// Price returns the mid price, falling back to the last bar close.
func (s *MarketSnapshot) Price() float64 {
	if s.Bid > 0 && s.Ask > 0 {
		return (s.Bid + s.Ask) / 2
	}
	for _, bars := range s.Bars {
		if n := len(bars); n > 0 {
			return bars[n-1].Close
		}
	}
	return 0
}

// SpreadPoints returns the current spread expressed in points.
func (s *MarketSnapshot) SpreadPoints() float64 {
	if s.Info.Point <= 0 {
		return 0
	}
	return (s.Ask - s.Bid) / s.Info.Point
}

// AccountInfo is the broker account state used by risk guards and sizing.
type AccountInfo struct {
	Balance float64
	Equity  float64
	Profit  float64 // floating profit of open positions
}
