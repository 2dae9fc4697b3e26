package engine

import (
	"context"
	"fmt"
	"time"

	"orbbot/internal/baseline"
	"orbbot/internal/domain"
	"orbbot/internal/leverage"
	"orbbot/internal/orb"
	"orbbot/internal/ports"
	"orbbot/internal/session"
)

// takeProfitRangeMultiple scales the range width into the take-profit
// distance from the breakout level.
const takeProfitRangeMultiple = 5.0

// ActionType distinguishes the two order intents the engine can emit.
type ActionType string

const (
	ActionOpen  ActionType = "OPEN"
	ActionClose ActionType = "CLOSE"
)

// Action is an order intent emitted by the engine. The engine never talks to
// an exchange itself; the caller executes the action and reports the fill
// back via ApplyOpenFill or ApplyCloseFill. Until a fill is applied the same
// action is re-emitted on every tick, so a failed gateway call costs a retry,
// never a state divergence.
type Action struct {
	Type           ActionType            `json:"type"`
	Direction      domain.Direction      `json:"direction"`
	Classification domain.Classification `json:"classification,omitempty"`
	Leverage       int                   `json:"leverage,omitempty"`
	Price          float64               `json:"price"`
	Reason         domain.CloseReason    `json:"reason,omitempty"`
}

// Tick is one unit of input to the engine: a point in time, optionally
// carrying the final candle that closed at or just before it. Clock-only
// ticks (nil candle) still drive phase transitions and the reset edge.
type Tick struct {
	Time   time.Time
	Candle *domain.Kline
}

// Config holds the engine's static parameters. A zero Plan falls back to the
// single full-size entry.
type Config struct {
	Symbol          string
	BaseCapital     float64
	MaxBreakoutsDay int
	Plan            EntryPlan
}

// Engine is the trading decision core. It consumes a monotonically increasing
// stream of ticks and emits order actions; it is the single writer of all
// trading state. Feeding the same tick stream always produces the same
// actions, which is what makes historical replay trustworthy.
type Engine struct {
	logger  ports.Logger
	clock   *session.Clock
	calc    *orb.Calculator
	policy  leverage.Policy
	tracker *baseline.Tracker
	agg     *Aggregator
	cfg     Config

	day         *domain.TradingDay
	rangeFrozen bool
	calcCandles []*domain.Kline

	open          *domain.Breakout
	closed        []*domain.Breakout
	breakoutCount int

	// insideRange gates entries: a new breakout is only taken after the
	// close has returned inside the frozen range since the last signal.
	insideRange     bool
	lastSignalOpen  time.Time
	prevValidMid    *float64
	lastTick        time.Time
	resetPending    bool
	baselineValid   bool
	bigLossCarry    bool
	baselineWarned  bool

	pendingOpen  *Action
	pendingClose *Action
}

// New creates an engine. All collaborators are required.
func New(cfg Config, clock *session.Clock, calc *orb.Calculator, policy leverage.Policy, tracker *baseline.Tracker, agg *Aggregator, logger ports.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for engine")
	}
	if clock == nil || calc == nil || policy == nil || tracker == nil || agg == nil {
		return nil, fmt.Errorf("%w: engine collaborators are required", ports.ErrConfigurationError)
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ports.ErrConfigurationError)
	}
	if cfg.BaseCapital <= 0 {
		return nil, fmt.Errorf("%w: base capital must be positive", ports.ErrConfigurationError)
	}
	if cfg.MaxBreakoutsDay <= 0 {
		return nil, fmt.Errorf("%w: max breakouts per day must be positive", ports.ErrConfigurationError)
	}
	if len(cfg.Plan.Steps) == 0 {
		cfg.Plan = DefaultEntryPlan()
	}
	if err := cfg.Plan.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		logger:  logger,
		clock:   clock,
		calc:    calc,
		policy:  policy,
		tracker: tracker,
		agg:     agg,
		cfg:     cfg,
	}, nil
}

// Advance feeds one tick into the engine and returns the actions the caller
// must execute. At most one action is pending at a time; the same action is
// returned again on subsequent ticks until its fill is applied. Ticks must be
// strictly increasing in time; out-of-order ticks are dropped.
func (e *Engine) Advance(ctx context.Context, tick Tick) []Action {
	if !e.lastTick.IsZero() && !tick.Time.After(e.lastTick) {
		e.logger.Warn(ctx, "out-of-order tick dropped", map[string]interface{}{
			"tick": tick.Time, "last": e.lastTick,
		})
		return e.pending()
	}

	if e.clock.CrossedReset(e.lastTick, tick.Time) {
		e.resetPending = true
		e.logger.Info(ctx, "daily reset edge crossed", map[string]interface{}{
			"at": tick.Time, "day": e.currentDate(),
		})
	}
	e.lastTick = tick.Time

	if e.resetPending {
		e.handleReset(ctx, tick)
		if e.resetPending {
			// Still waiting for the end-of-day close to fill.
			return e.pending()
		}
	}

	if e.day == nil {
		e.rollDay(ctx, tick.Time)
	}

	phase := e.clock.Phase(tick.Time)
	switch phase {
	case domain.PhaseRangeCalc:
		e.pendingOpen = nil
		if tick.Candle != nil && tick.Candle.IsFinal {
			e.calcCandles = append(e.calcCandles, tick.Candle)
		}
		// A position left open across the reset (gateway outage) is still
		// supervised here so its end-of-day close keeps being retried.
	case domain.PhaseTrading:
		if !e.rangeFrozen {
			e.collectStraddlingCandle(tick)
			e.freezeRange(ctx, tick.Time)
		}
		e.superviseExits(ctx, tick)
		e.considerEntry(ctx, tick)
	case domain.PhaseMonitorOnly:
		e.pendingOpen = nil
		if !e.rangeFrozen {
			if !e.clock.CalcWindowDone(tick.Time) {
				// Pre-calculation gap after the reset; nothing to do yet.
				return e.pending()
			}
			e.collectStraddlingCandle(tick)
			e.freezeRange(ctx, tick.Time)
		}
		e.superviseExits(ctx, tick)
		if e.open != nil && e.pendingClose == nil {
			price := e.refPrice(tick)
			e.pendingClose = &Action{
				Type:      ActionClose,
				Direction: e.open.Direction,
				Price:     price,
				Reason:    domain.CloseReasonSessionEnd,
			}
			e.logger.Info(ctx, "session ended with open position, closing", map[string]interface{}{
				"day": e.day.Date, "direction": e.open.Direction, "price": price,
			})
		}
	}

	return e.pending()
}

// ApplyOpenFill reports the fill of the pending open action. The breakout
// position is created only here, so an action the gateway never executed
// leaves the engine exactly where it was.
func (e *Engine) ApplyOpenFill(ctx context.Context, price float64, at time.Time) error {
	if e.pendingOpen == nil {
		return fmt.Errorf("%w: no open action pending", ports.ErrInvalidRequest)
	}
	act := e.pendingOpen
	rng := e.day.Range

	var stop, target float64
	if act.Direction == domain.Long {
		stop = rng.Mid
		target = rng.High + takeProfitRangeMultiple*rng.Width
	} else {
		stop = rng.Mid
		target = rng.Low - takeProfitRangeMultiple*rng.Width
	}

	e.open = &domain.Breakout{
		Symbol:         e.cfg.Symbol,
		Day:            e.day.Date,
		Direction:      act.Direction,
		Classification: act.Classification,
		EntryPrice:     price,
		StopLoss:       stop,
		TakeProfit:     target,
		Leverage:       act.Leverage,
		Notional:       e.cfg.BaseCapital * float64(act.Leverage) * e.cfg.Plan.initialProportion() / price,
		OpenedAt:       at,
		Status:         domain.StatusOpen,
	}
	e.pendingOpen = nil
	e.logger.Info(ctx, "breakout position opened", map[string]interface{}{
		"day": e.day.Date, "direction": act.Direction, "classification": act.Classification,
		"entry": price, "stop_loss": stop, "take_profit": target,
		"leverage": act.Leverage, "notional": e.open.Notional,
	})
	return nil
}

// ApplyCloseFill reports the fill of the pending close action. The position
// is realized and archived into the day's closed list.
func (e *Engine) ApplyCloseFill(ctx context.Context, price float64, at time.Time) error {
	if e.pendingClose == nil || e.open == nil {
		return fmt.Errorf("%w: no close action pending", ports.ErrInvalidRequest)
	}
	reason := e.pendingClose.Reason
	e.open.Close(price, at, reason)
	e.closed = append(e.closed, e.open)
	e.logger.Info(ctx, "breakout position closed", map[string]interface{}{
		"day": e.open.Day, "direction": e.open.Direction, "reason": reason,
		"entry": e.open.EntryPrice, "exit": price, "pnl": e.open.PNL,
	})
	e.open = nil
	e.pendingClose = nil
	e.insideRange = false
	return nil
}

// OpenPosition returns the currently open breakout, or nil.
func (e *Engine) OpenPosition() *domain.Breakout { return e.open }

// PlannedNotional returns the base-asset quantity an entry filled at price
// would take, so order placement and position bookkeeping size identically.
func (e *Engine) PlannedNotional(price float64, lev int) float64 {
	return e.cfg.BaseCapital * float64(lev) * e.cfg.Plan.initialProportion() / price
}

// handleReset drives the end-of-day sequence. Any open position is closed at
// the last known price first; once flat, the aggregator archives the day and
// the next day begins.
func (e *Engine) handleReset(ctx context.Context, tick Tick) {
	if e.open != nil {
		if e.pendingClose == nil || e.pendingClose.Reason != domain.CloseReasonEndOfDay {
			e.pendingClose = &Action{
				Type:      ActionClose,
				Direction: e.open.Direction,
				Price:     e.refPrice(tick),
				Reason:    domain.CloseReasonEndOfDay,
			}
		}
		return
	}
	if e.day != nil && e.rangeFrozen {
		e.agg.Archive(ctx, e.day, e.closed)
	}
	e.resetPending = false
	e.rollDay(ctx, tick.Time)
}

// rollDay resets all per-day state for the trading date the instant maps to.
func (e *Engine) rollDay(ctx context.Context, now time.Time) {
	date := e.clock.TradingDate(now)
	e.day = &domain.TradingDay{Date: date}
	e.rangeFrozen = false
	e.calcCandles = nil
	e.closed = nil
	e.breakoutCount = 0
	e.insideRange = true
	e.lastSignalOpen = time.Time{}
	e.pendingOpen = nil
	e.baselineValid = false
	e.bigLossCarry = false
	e.baselineWarned = false
	e.logger.Info(ctx, "trading day started", map[string]interface{}{"day": date})
}

// collectStraddlingCandle catches the last calculation-window candle when its
// close tick arrives after the trading boundary, so it still counts toward
// the range.
func (e *Engine) collectStraddlingCandle(tick Tick) {
	if tick.Candle != nil && tick.Candle.IsFinal && e.clock.Phase(tick.Candle.OpenTime) == domain.PhaseRangeCalc {
		e.calcCandles = append(e.calcCandles, tick.Candle)
	}
}

// freezeRange fixes the day's range levels, trend and leverage context at the
// moment the calculation phase ends. Everything set here is immutable for the
// rest of the day.
func (e *Engine) freezeRange(ctx context.Context, now time.Time) {
	e.rangeFrozen = true
	rng := e.calc.Compute(e.calcCandles)
	e.day.Range = rng

	if !rng.Valid {
		e.day.Trend = domain.TrendNeutral
		e.agg.RecordSkipped(ctx, e.day.Date, rng)
		return
	}

	e.day.Trend = orb.ClassifyTrend(rng.Mid, e.prevValidMid)
	mid := rng.Mid
	e.prevValidMid = &mid

	stats, valid := e.tracker.Stats()
	e.baselineValid = valid
	if valid {
		if last, ok := e.tracker.Last(); ok && last.RealizedPnl < 0 && -last.RealizedPnl > stats.AvgLossPnl {
			e.bigLossCarry = true
		}
	}
	e.day.BigLossCarry = e.bigLossCarry

	e.logger.Info(ctx, "opening range frozen", map[string]interface{}{
		"day": e.day.Date, "high": rng.High, "low": rng.Low, "mid": rng.Mid,
		"width": rng.Width, "candles": rng.Candles, "trend": e.day.Trend,
		"baseline_valid": valid, "big_loss_carry": e.bigLossCarry,
	})
}

// superviseExits checks the open position against its stop and target using
// the candle's full excursion. When both levels fall inside one candle the
// stop wins: intra-candle ordering is unknowable and the loss bound must hold.
func (e *Engine) superviseExits(ctx context.Context, tick Tick) {
	if e.open == nil || e.pendingClose != nil || tick.Candle == nil || !tick.Candle.IsFinal {
		return
	}
	k := tick.Candle
	var price float64
	var reason domain.CloseReason

	if e.open.Direction == domain.Long {
		switch {
		case k.Low <= e.open.StopLoss:
			price, reason = e.open.StopLoss, domain.CloseReasonStopLoss
		case k.High >= e.open.TakeProfit:
			price, reason = e.open.TakeProfit, domain.CloseReasonTakeProfit
		default:
			return
		}
	} else {
		switch {
		case k.High >= e.open.StopLoss:
			price, reason = e.open.StopLoss, domain.CloseReasonStopLoss
		case k.Low <= e.open.TakeProfit:
			price, reason = e.open.TakeProfit, domain.CloseReasonTakeProfit
		default:
			return
		}
	}

	e.lastSignalOpen = k.OpenTime
	e.pendingClose = &Action{
		Type:      ActionClose,
		Direction: e.open.Direction,
		Price:     price,
		Reason:    reason,
	}
}

// considerEntry evaluates the candle close against the frozen range and emits
// an open action when a breakout qualifies. Entries require the close to have
// returned inside the range since the previous signal, and a candle newer
// than the one that produced that signal.
func (e *Engine) considerEntry(ctx context.Context, tick Tick) {
	if !e.rangeFrozen || !e.day.Range.Valid {
		return
	}
	if e.open != nil || e.pendingOpen != nil || e.pendingClose != nil {
		return
	}
	k := tick.Candle
	if k == nil || !k.IsFinal {
		return
	}
	rng := e.day.Range

	if k.Close >= rng.Low && k.Close <= rng.High {
		e.insideRange = true
		return
	}
	if !e.insideRange || !k.OpenTime.After(e.lastSignalOpen) {
		return
	}

	var dir domain.Direction
	switch {
	case k.Close > rng.High:
		dir = domain.Long
	case k.Close < rng.Low:
		dir = domain.Short
	default:
		return
	}

	if e.breakoutCount >= e.cfg.MaxBreakoutsDay {
		e.logger.Warn(ctx, "daily breakout cap reached, signal ignored", map[string]interface{}{
			"day": e.day.Date, "direction": dir, "close": k.Close, "cap": e.cfg.MaxBreakoutsDay,
		})
		e.insideRange = false
		e.lastSignalOpen = k.OpenTime
		return
	}

	class := domain.Classify(dir, e.day.Trend)
	if !e.baselineValid && !e.baselineWarned {
		e.logger.Info(ctx, "baseline not yet valid, base leverage applies", map[string]interface{}{
			"day": e.day.Date,
		})
		e.baselineWarned = true
	}
	lev := e.policy.Select(class, leverage.Context{
		BaselineValid: e.baselineValid,
		BigLossCarry:  e.bigLossCarry,
	})

	e.breakoutCount++
	e.insideRange = false
	e.lastSignalOpen = k.OpenTime
	e.day.TierSequence = append(e.day.TierSequence, domain.TierRecord{
		At:             k.CloseTime,
		Leverage:       lev,
		Classification: class,
		Reduced:        e.bigLossCarry && e.baselineValid,
	})
	e.pendingOpen = &Action{
		Type:           ActionOpen,
		Direction:      dir,
		Classification: class,
		Leverage:       lev,
		Price:          k.Close,
	}
	e.logger.Info(ctx, "breakout signal", map[string]interface{}{
		"day": e.day.Date, "direction": dir, "classification": class,
		"close": k.Close, "leverage": lev, "count": e.breakoutCount,
	})
}

// pending returns the action the caller must execute now, if any. A close
// always takes precedence over an open.
func (e *Engine) pending() []Action {
	if e.pendingClose != nil {
		return []Action{*e.pendingClose}
	}
	if e.pendingOpen != nil {
		return []Action{*e.pendingOpen}
	}
	return nil
}

func (e *Engine) refPrice(tick Tick) float64 {
	if tick.Candle != nil {
		return tick.Candle.Close
	}
	if e.open != nil {
		return e.open.EntryPrice
	}
	return 0
}

func (e *Engine) currentDate() string {
	if e.day == nil {
		return ""
	}
	return e.day.Date
}
