package domain

import "time"

// RangeLevels holds the frozen opening-range levels for a trading day.
// Width outside the configured [min, max] band marks the day invalid, as does
// an empty calculation window.
type RangeLevels struct {
	High    float64
	Low     float64
	Mid     float64
	Width   float64
	Valid   bool
	Candles int // Number of candles observed in the calculation window
}

// TierRecord captures which leverage tier applied at a trade-open instant and
// why. The tier can only change between days (via the prior-day big-loss
// flag), never intra-day, but the ordered record is kept per open.
type TierRecord struct {
	At             time.Time
	Leverage       int
	Classification Classification
	Reduced        bool // True when the prior-day big-loss reduction applied
}

// TradingDay is the per-day unit of state, identified by its calendar date in
// the trading timezone. Range fields are set once when the calculation phase
// ends and are immutable afterwards.
type TradingDay struct {
	Date         string // "2006-01-02" in the trading timezone
	Range        RangeLevels
	Trend        Trend
	BigLossCarry bool // Yesterday's loss magnitude exceeded the baseline average loss
	TierSequence []TierRecord
}
