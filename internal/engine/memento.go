package engine

import (
	"fmt"
	"sort"
	"time"

	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

// Memento is the serializable snapshot of the engine's mutable state. The
// performance history is not part of it; that lives in the database and is
// reseeded into the baseline tracker on startup.
type Memento struct {
	Day            *domain.TradingDay `json:"day"`
	RangeFrozen    bool               `json:"range_frozen"`
	CalcCandles    []*domain.Kline    `json:"calc_candles,omitempty"`
	Open           *domain.Breakout   `json:"open,omitempty"`
	Closed         []*domain.Breakout `json:"closed,omitempty"`
	BreakoutCount  int                `json:"breakout_count"`
	InsideRange    bool               `json:"inside_range"`
	LastSignalOpen time.Time          `json:"last_signal_open"`
	PrevValidMid   *float64           `json:"prev_valid_mid,omitempty"`
	LastTick       time.Time          `json:"last_tick"`
	ResetPending   bool               `json:"reset_pending"`
	BaselineValid  bool               `json:"baseline_valid"`
	BigLossCarry   bool               `json:"big_loss_carry"`
	BaselineWarned bool               `json:"baseline_warned"`
	PendingOpen    *Action            `json:"pending_open,omitempty"`
	PendingClose   *Action            `json:"pending_close,omitempty"`
	ArchivedDates  []string           `json:"archived_dates,omitempty"`
}

// Snapshot exports the engine's current state.
func (e *Engine) Snapshot() Memento {
	m := Memento{
		Day:            e.day,
		RangeFrozen:    e.rangeFrozen,
		CalcCandles:    e.calcCandles,
		Open:           e.open,
		Closed:         e.closed,
		BreakoutCount:  e.breakoutCount,
		InsideRange:    e.insideRange,
		LastSignalOpen: e.lastSignalOpen,
		PrevValidMid:   e.prevValidMid,
		LastTick:       e.lastTick,
		ResetPending:   e.resetPending,
		BaselineValid:  e.baselineValid,
		BigLossCarry:   e.bigLossCarry,
		BaselineWarned: e.baselineWarned,
		PendingOpen:    e.pendingOpen,
		PendingClose:   e.pendingClose,
	}
	for date := range e.agg.archived {
		m.ArchivedDates = append(m.ArchivedDates, date)
	}
	sort.Strings(m.ArchivedDates)
	return m
}

// Restore loads a previously exported snapshot. Internal inconsistencies are
// reported as state corruption, which callers must treat as fatal rather than
// trading on a guessed state.
func (e *Engine) Restore(m Memento) error {
	if m.Day == nil && (m.RangeFrozen || m.Open != nil || len(m.Closed) > 0) {
		return fmt.Errorf("%w: trading state present without a trading day", ports.ErrStateCorruption)
	}
	if m.Open != nil && !m.Open.IsOpen() {
		return fmt.Errorf("%w: open position is marked closed", ports.ErrStateCorruption)
	}
	if m.PendingClose != nil && m.Open == nil {
		return fmt.Errorf("%w: close action pending with no open position", ports.ErrStateCorruption)
	}
	if m.BreakoutCount < 0 || m.BreakoutCount > e.cfg.MaxBreakoutsDay {
		return fmt.Errorf("%w: breakout count %d out of range", ports.ErrStateCorruption, m.BreakoutCount)
	}

	e.day = m.Day
	e.rangeFrozen = m.RangeFrozen
	e.calcCandles = m.CalcCandles
	e.open = m.Open
	e.closed = m.Closed
	e.breakoutCount = m.BreakoutCount
	e.insideRange = m.InsideRange
	e.lastSignalOpen = m.LastSignalOpen
	e.prevValidMid = m.PrevValidMid
	e.lastTick = m.LastTick
	e.resetPending = m.ResetPending
	e.baselineValid = m.BaselineValid
	e.bigLossCarry = m.BigLossCarry
	e.baselineWarned = m.BaselineWarned
	e.pendingOpen = m.PendingOpen
	e.pendingClose = m.PendingClose
	for _, date := range m.ArchivedDates {
		e.agg.archived[date] = struct{}{}
	}
	return nil
}
