package engine

import (
	"context"
	"errors"

	"orbbot/internal/baseline"
	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

// DayRecord is the full per-day trace kept for reporting. Unlike
// DailyPerformance, which is the persisted minimum, a DayRecord keeps the
// individual breakouts and the tier sequence.
type DayRecord struct {
	Date       string
	Trend      domain.Trend
	RangeWidth float64
	Valid      bool
	Breakouts  []*domain.Breakout
	Pnl        float64
	Wins       int
	Losses     int
	Tiers      []domain.TierRecord
}

// SkippedDay records a day whose range failed the width filter and therefore
// never traded.
type SkippedDay struct {
	Date    string
	Width   float64
	Candles int
}

// ArchiveHook receives each archived day, e.g. to persist it.
type ArchiveHook func(ctx context.Context, rec domain.DailyPerformance) error

// Aggregator turns a finished trading day into its archived performance
// record and feeds the baseline tracker. Archiving is idempotent per date, so
// a reset edge delivered more than once cannot double-count a day.
type Aggregator struct {
	logger   ports.Logger
	tracker  *baseline.Tracker
	hook     ArchiveHook
	archived map[string]struct{}
	records  []DayRecord
	skipped  []SkippedDay
}

// NewAggregator creates an aggregator bound to the baseline tracker.
func NewAggregator(tracker *baseline.Tracker, logger ports.Logger) (*Aggregator, error) {
	if logger == nil {
		return nil, errors.New("logger is required for aggregator")
	}
	if tracker == nil {
		return nil, errors.New("baseline tracker is required for aggregator")
	}
	return &Aggregator{
		logger:   logger,
		tracker:  tracker,
		archived: make(map[string]struct{}),
	}, nil
}

// SetArchiveHook installs the persistence callback. A hook failure is logged
// and does not block in-memory archiving; the next process restart reseeds
// from whatever was persisted.
func (a *Aggregator) SetArchiveHook(hook ArchiveHook) { a.hook = hook }

// Archive finalizes one trading day. Days with no trades archive as FLAT;
// they appear in the history but count toward neither baseline average. A
// date already archived is ignored.
func (a *Aggregator) Archive(ctx context.Context, day *domain.TradingDay, closed []*domain.Breakout) {
	if _, ok := a.archived[day.Date]; ok {
		return
	}
	a.archived[day.Date] = struct{}{}

	var pnl float64
	var wins, losses int
	for _, b := range closed {
		pnl += b.PNL
		switch {
		case b.PNL > 0:
			wins++
		case b.PNL < 0:
			losses++
		}
	}

	rec := domain.DailyPerformance{
		Date:        day.Date,
		RealizedPnl: pnl,
		Trades:      len(closed),
		Wins:        wins,
		Losses:      losses,
		Outcome:     domain.OutcomeFor(pnl),
	}

	if err := a.tracker.Append(rec); err != nil && !errors.Is(err, ports.ErrDayArchived) {
		a.logger.Error(ctx, err, "failed to append daily performance", map[string]interface{}{"day": day.Date})
	}
	if a.hook != nil {
		if err := a.hook(ctx, rec); err != nil {
			a.logger.Error(ctx, err, "archive hook failed", map[string]interface{}{"day": day.Date})
		}
	}

	a.records = append(a.records, DayRecord{
		Date:       day.Date,
		Trend:      day.Trend,
		RangeWidth: day.Range.Width,
		Valid:      day.Range.Valid,
		Breakouts:  closed,
		Pnl:        pnl,
		Wins:       wins,
		Losses:     losses,
		Tiers:      day.TierSequence,
	})

	a.logger.Info(ctx, "trading day archived", map[string]interface{}{
		"day": day.Date, "trades": len(closed), "pnl": pnl, "outcome": rec.Outcome,
	})
}

// RecordSkipped notes a day whose range width fell outside the validity band.
func (a *Aggregator) RecordSkipped(ctx context.Context, date string, rng domain.RangeLevels) {
	a.skipped = append(a.skipped, SkippedDay{Date: date, Width: rng.Width, Candles: rng.Candles})
	a.logger.Info(ctx, "range width outside validity band, day skipped", map[string]interface{}{
		"day": date, "width": rng.Width, "candles": rng.Candles,
	})
}

// Records returns the archived day traces, oldest first.
func (a *Aggregator) Records() []DayRecord {
	out := make([]DayRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Skipped returns the days eliminated by the range width filter.
func (a *Aggregator) Skipped() []SkippedDay {
	out := make([]SkippedDay, len(a.skipped))
	copy(out, a.skipped)
	return out
}
