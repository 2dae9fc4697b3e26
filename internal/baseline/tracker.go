package baseline

import (
	"fmt"

	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

// MinSamples is the number of winning and losing days each required before
// the baseline is considered valid for leverage gating.
const MinSamples = 3

// Stats is the rolling win/loss baseline derived from the daily performance
// history. AvgLossPnl is the mean of the absolute values of losing days.
type Stats struct {
	AvgWinPnl  float64
	AvgLossPnl float64
	WinCount   int
	LossCount  int
}

// Tracker maintains the append-only daily performance history and computes
// baseline stats over it. The in-progress day is never in the history (days
// are appended only when archived), so the stats carry no look-ahead.
type Tracker struct {
	logger  ports.Logger
	history []domain.DailyPerformance
	dates   map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker(logger ports.Logger) (*Tracker, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for baseline tracker")
	}
	return &Tracker{logger: logger, dates: make(map[string]struct{})}, nil
}

// Append adds one archived day to the history. A date can only be archived
// once; a duplicate returns ErrDayArchived so reset delivery stays idempotent.
func (t *Tracker) Append(rec domain.DailyPerformance) error {
	if _, ok := t.dates[rec.Date]; ok {
		return fmt.Errorf("%w: %s", ports.ErrDayArchived, rec.Date)
	}
	t.history = append(t.history, rec)
	t.dates[rec.Date] = struct{}{}
	return nil
}

// Seed loads a persisted history, e.g. on process restart. Records must be
// date-ascending with unique dates.
func (t *Tracker) Seed(recs []domain.DailyPerformance) error {
	for _, rec := range recs {
		if err := t.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// History returns a copy of the archived records, oldest first.
func (t *Tracker) History() []domain.DailyPerformance {
	out := make([]domain.DailyPerformance, len(t.history))
	copy(out, t.history)
	return out
}

// Last returns the most recently archived day, if any.
func (t *Tracker) Last() (domain.DailyPerformance, bool) {
	if len(t.history) == 0 {
		return domain.DailyPerformance{}, false
	}
	return t.history[len(t.history)-1], true
}

// Stats computes the baseline over the full archived history. The second
// return is false while fewer than MinSamples wins or losses exist; callers
// must treat that as "adaptive leverage unavailable today", never as a
// baseline of zeros. FLAT days count toward neither average.
func (t *Tracker) Stats() (Stats, bool) {
	var s Stats
	var winSum, lossSum float64
	for _, rec := range t.history {
		switch {
		case rec.RealizedPnl > 0:
			s.WinCount++
			winSum += rec.RealizedPnl
		case rec.RealizedPnl < 0:
			s.LossCount++
			lossSum += -rec.RealizedPnl
		}
	}
	if s.WinCount < MinSamples || s.LossCount < MinSamples {
		return s, false
	}
	s.AvgWinPnl = winSum / float64(s.WinCount)
	s.AvgLossPnl = lossSum / float64(s.LossCount)
	return s, true
}
