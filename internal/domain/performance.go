package domain

// DailyPerformance is the archived result of one trading day. Records are
// append-only and never mutated after creation.
type DailyPerformance struct {
	Date        string  // "2006-01-02" in the trading timezone
	RealizedPnl float64 // Sum of PnL across the day's closed breakouts
	Trades      int
	Wins        int
	Losses      int
	Outcome     Outcome
}

/// OutcomeFor labels a realized PnL: strictly positive is WIN, strictly
// negative is LOSS, exactly zero is FLAT and counts toward neither baseline
// counter.
func OutcomeFor(pnl float64) Outcome {
	switch {
	case pnl > 0:
		return OutcomeWin
	case pnl < 0:
		return OutcomeLoss
	default:
		return OutcomeFlat
	}
}
