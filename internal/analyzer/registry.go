package analyzer

import "sweepguard/internal/domain/models"

// Default returns the full analyzer set in scoring order. base is the
// primary analysis timeframe; confluence lists the timeframes the
// multi-timeframe analyzer compares.
func Default(base models.Timeframe, confluence []models.Timeframe, volumeLookback, statLookback int) []Analyzer {
	return []Analyzer{
		NewPriceAction(base),
		NewMultiTimeframe(confluence),
		NewVolume(base, volumeLookback),
		NewStatistical(base, statLookback),
		NewVelocity(base),
		NewMicrostructure(base),
		NewMarketContext(base),
		NewSmartMoney(base),
		NewLiquidity(base),
	}
}
