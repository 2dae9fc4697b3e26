package domain

import "time"

// Breakout represents one open-to-close trade triggered by price leaving the
// opening range. At most one breakout is open per instrument at any time; the
// breakout engine is the sole owner, everything downstream reads it only.
type Breakout struct {
	ID             int64          // Unique identifier (assigned by the repository)
	Symbol         string         // Trading symbol (e.g., "BTCUSDT")
	Day            string         // Trading date this breakout belongs to ("2006-01-02")
	Direction      Direction      // LONG or SHORT
	Classification Classification // Direction relative to the day's trend
	EntryPrice     float64        // Fill price at entry
	ExitPrice      float64        // Fill price at exit (0 while open)
	StopLoss       float64        // Stop-loss level (the range midpoint)
	TakeProfit     float64        // Take-profit level
	Leverage       int            // Leverage tier applied at open
	Notional       float64        // Position size in base-asset units, leverage embedded
	OpenedAt       time.Time      // Entry timestamp
	ClosedAt       time.Time      // Exit timestamp (zero value while open)
	Status         PositionStatus // open or closed
	CloseReason    CloseReason    // Why the position was closed
	PNL            float64        // Realized profit and loss (set on close)
}

// IsOpen reports whether the breakout is still open.
func (b *Breakout) IsOpen() bool {
	return b.Status == StatusOpen
}

// Close marks the breakout closed at the given price and time and realizes
// its PnL: (exit - entry) * direction sign * notional. Leverage is already
// embedded in the notional, so it does not appear again here.
func (b *Breakout) Close(exitPrice float64, at time.Time, reason CloseReason) {
	b.ExitPrice = exitPrice
	b.ClosedAt = at
	b.CloseReason = reason
	b.Status = StatusClosed
	b.PNL = (exitPrice - b.EntryPrice) * b.Direction.Sign() * b.Notional
}
