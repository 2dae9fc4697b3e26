package session

import (
	"fmt"
	"time"

	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

// Config holds the immutable session boundaries, expressed as minutes since
// midnight in the trading timezone. Calculation phase is [CalcStart, CalcEnd),
// trading is [CalcEnd, NoNewEntries), monitor-only covers the rest of the day
// wrapping past midnight, and Reset is the instant at which the day archives
// and the next one begins.
type Config struct {
	Location     *time.Location
	CalcStart    int
	CalcEnd      int
	NoNewEntries int
	Reset        int
}

// Clock maps wall-clock time to session phases and detects the once-per-day
// reset edge under irregular polling.
type Clock struct {
	cfg    Config
	logger ports.Logger
}

const minutesPerDay = 24 * 60

// ParseClockTime parses a "HH:MM" boundary into minutes since midnight.
func ParseClockTime(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q (want HH:MM): %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// New creates a session clock. Boundary ordering is validated up front; a
// malformed configuration is fatal, never defaulted.
func New(cfg Config, logger ports.Logger) (*Clock, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for session clock")
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("%w: trading timezone is required", ports.ErrConfigurationError)
	}
	for _, b := range []int{cfg.CalcStart, cfg.CalcEnd, cfg.NoNewEntries, cfg.Reset} {
		if b < 0 || b >= minutesPerDay {
			return nil, fmt.Errorf("%w: session boundary %d out of range", ports.ErrConfigurationError, b)
		}
	}
	if cfg.CalcStart >= cfg.CalcEnd {
		return nil, fmt.Errorf("%w: calculation start must precede calculation end", ports.ErrConfigurationError)
	}
	if cfg.CalcEnd >= cfg.NoNewEntries {
		return nil, fmt.Errorf("%w: trading start must precede the no-new-entries cutoff", ports.ErrConfigurationError)
	}
	if cfg.Reset > cfg.CalcStart {
		return nil, fmt.Errorf("%w: reset must precede the calculation window", ports.ErrConfigurationError)
	}
	return &Clock{cfg: cfg, logger: logger}, nil
}

// Phase returns the dwell phase for the given instant. Boundaries are
// half-open: the instant of CalcEnd already belongs to TRADING. The reset
// edge is not a dwell phase; use CrossedReset for it.
func (c *Clock) Phase(t time.Time) domain.SessionPhase {
	mod := c.minuteOfDay(t)
	switch {
	case mod >= c.cfg.CalcStart && mod < c.cfg.CalcEnd:
		return domain.PhaseRangeCalc
	case mod >= c.cfg.CalcEnd && mod < c.cfg.NoNewEntries:
		return domain.PhaseTrading
	default:
		return domain.PhaseMonitorOnly
	}
}

// TradingDate returns the calendar date (in the trading timezone) of the
// trading day the instant belongs to. The day boundary is the reset time, so
// the after-midnight tail of a session still maps to the previous date.
func (c *Clock) TradingDate(t time.Time) string {
	lt := t.In(c.cfg.Location)
	if c.minuteOfDay(lt) < c.cfg.Reset {
		lt = lt.AddDate(0, 0, -1)
	}
	return lt.Format("2006-01-02")
}

// CalcWindowDone reports whether the current trading day's calculation window
// has already ended at t. In the gap between the reset and the calculation
// start it is false: the day exists but its range cannot be frozen yet.
func (c *Clock) CalcWindowDone(t time.Time) bool {
	mod := c.minuteOfDay(t)
	return mod >= c.cfg.CalcEnd || mod < c.cfg.Reset
}

// CrossedReset reports whether the reset instant falls in (prev, now].
// Polling granularity does not matter: a poll gap that straddles the boundary
// still reports the edge exactly once, and later polls on the same day report
// it never again. A zero prev (first tick ever) never fires.
func (c *Clock) CrossedReset(prev, now time.Time) bool {
	if prev.IsZero() || !now.After(prev) {
		return false
	}
	return c.lastResetAt(now).After(prev)
}

// lastResetAt returns the most recent reset instant at or before t.
func (c *Clock) lastResetAt(t time.Time) time.Time {
	lt := t.In(c.cfg.Location)
	r := time.Date(lt.Year(), lt.Month(), lt.Day(), c.cfg.Reset/60, c.cfg.Reset%60, 0, 0, c.cfg.Location)
	if r.After(lt) {
		r = r.AddDate(0, 0, -1)
	}
	return r
}

func (c *Clock) minuteOfDay(t time.Time) int {
	lt := t.In(c.cfg.Location)
	return lt.Hour()*60 + lt.Minute()
}
