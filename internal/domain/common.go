package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Direction is the side of a breakout position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Sign returns +1 for LONG and -1 for SHORT, used in PnL math.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// OrderSide maps the position direction to the order side used to open it.
func (d Direction) OrderSide() OrderSide {
	if d == Short {
		return Sell
	}
	return Buy
}

// CloseSide maps the position direction to the order side used to close it.
func (d Direction) CloseSide() OrderSide {
	if d == Short {
		return Buy
	}
	return Sell
}

// Trend labels a trading day relative to the previous valid day's range midpoint.
type Trend string

const (
	TrendUp      Trend = "UP"
	TrendDown    Trend = "DOWN"
	TrendNeutral Trend = "NEUTRAL"
)

// Classification labels a trade's direction relative to the day's trend.
type Classification string

const (
	Aligned Classification = "ALIGNED"
	Against Classification = "AGAINST"
	// Fallback applies on NEUTRAL trend days: the trade is neither aligned
	// nor against and the base leverage tier is used.
	Fallback Classification = "NEUTRAL"
)

// Classify returns the classification of a trade direction against the day's
// trend. It is pure and total: {LONG,UP} and {SHORT,DOWN} are aligned,
// {LONG,DOWN} and {SHORT,UP} are against, and any NEUTRAL trend falls back.
func Classify(d Direction, t Trend) Classification {
	switch t {
	case TrendUp:
		if d == Long {
			return Aligned
		}
		return Against
	case TrendDown:
		if d == Short {
			return Aligned
		}
		return Against
	default:
		return Fallback
	}
}

// PositionStatus represents the status of a breakout position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// CloseReason indicates why a breakout position was closed.
type CloseReason string

const (
	CloseReasonStopLoss   CloseReason = "STOP_LOSS"
	CloseReasonTakeProfit CloseReason = "TAKE_PROFIT"
	CloseReasonSessionEnd CloseReason = "SESSION_END"
	CloseReasonEndOfDay   CloseReason = "END_OF_DAY"
	CloseReasonUnknown    CloseReason = "UNKNOWN"
)

// Outcome labels a completed trading day by its realized PnL.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomeFlat Outcome = "FLAT"
)

// SessionPhase is one of the four time-bounded regimes a trading day moves
// through. Reset is an instantaneous edge rather than a dwell phase; the
// session clock reports it separately from the three dwell phases.
type SessionPhase string

const (
	PhaseRangeCalc   SessionPhase = "RANGE_CALC"
	PhaseTrading     SessionPhase = "TRADING"
	PhaseMonitorOnly SessionPhase = "MONITOR_ONLY"
	PhaseReset       SessionPhase = "RESET"
)
