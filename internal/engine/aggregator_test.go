package engine

import (
	"context"
	"errors"
	"testing"

	"orbbot/internal/baseline"
	"orbbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(t *testing.T) (*Aggregator, *baseline.Tracker) {
	t.Helper()
	tracker, err := baseline.NewTracker(nopLogger{})
	require.NoError(t, err)
	agg, err := NewAggregator(tracker, nopLogger{})
	require.NoError(t, err)
	return agg, tracker
}

func testDay(date string) *domain.TradingDay {
	return &domain.TradingDay{
		Date:  date,
		Range: domain.RangeLevels{High: 41000, Low: 40700, Mid: 40850, Width: 300, Valid: true},
		Trend: domain.TrendNeutral,
	}
}

func TestArchive_IsIdempotentPerDate(t *testing.T) {
	agg, tracker := newTestAggregator(t)
	ctx := context.Background()

	closed := []*domain.Breakout{{Day: "2025-01-02", PNL: 120}, {Day: "2025-01-02", PNL: -40}}
	agg.Archive(ctx, testDay("2025-01-02"), closed)
	agg.Archive(ctx, testDay("2025-01-02"), closed) // duplicate delivery

	records := agg.Records()
	require.Len(t, records, 1)
	assert.Equal(t, 80.0, records[0].Pnl)
	assert.Equal(t, 1, records[0].Wins)
	assert.Equal(t, 1, records[0].Losses)
	assert.Len(t, tracker.History(), 1)
}

func TestArchive_NoTradesIsFlat(t *testing.T) {
	agg, tracker := newTestAggregator(t)
	agg.Archive(context.Background(), testDay("2025-01-02"), nil)

	recs := tracker.History()
	require.Len(t, recs, 1)
	assert.Equal(t, domain.OutcomeFlat, recs[0].Outcome)
	assert.Zero(t, recs[0].Trades)
}

func TestArchive_HookFailureDoesNotBlock(t *testing.T) {
	agg, _ := newTestAggregator(t)
	agg.SetArchiveHook(func(ctx context.Context, rec domain.DailyPerformance) error {
		return errors.New("disk full")
	})
	agg.Archive(context.Background(), testDay("2025-01-02"), nil)
	assert.Len(t, agg.Records(), 1, "in-memory archive must survive a hook failure")
}

func TestArchive_HookReceivesRecord(t *testing.T) {
	agg, _ := newTestAggregator(t)
	var got domain.DailyPerformance
	agg.SetArchiveHook(func(ctx context.Context, rec domain.DailyPerformance) error {
		got = rec
		return nil
	})
	agg.Archive(context.Background(), testDay("2025-01-02"), []*domain.Breakout{{PNL: -75}})
	assert.Equal(t, "2025-01-02", got.Date)
	assert.Equal(t, -75.0, got.RealizedPnl)
	assert.Equal(t, domain.OutcomeLoss, got.Outcome)
}

func TestRecordSkipped(t *testing.T) {
	agg, _ := newTestAggregator(t)
	agg.RecordSkipped(context.Background(), "2025-01-02", domain.RangeLevels{Width: 950, Candles: 6})

	skipped := agg.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, 950.0, skipped[0].Width)
	assert.Equal(t, 6, skipped[0].Candles)
}
