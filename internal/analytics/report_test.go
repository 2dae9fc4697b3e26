package analytics

import (
	"testing"

	"orbbot/internal/domain"
	"orbbot/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil, 1000)
	assert.Zero(t, s.TotalDays)
	assert.Equal(t, 1000.0, s.FinalBalance)
	assert.Zero(t, s.MaxDrawdown)
}

func TestSummarize(t *testing.T) {
	records := []engine.DayRecord{
		{
			Date: "2025-01-02", Trend: domain.TrendUp, RangeWidth: 300, Valid: true, Pnl: 200, Wins: 1,
			Breakouts: []*domain.Breakout{{
				PNL: 200, CloseReason: domain.CloseReasonTakeProfit,
				Classification: domain.Aligned, Leverage: 10,
			}},
		},
		{
			Date: "2025-01-03", Trend: domain.TrendDown, RangeWidth: 400, Valid: true, Pnl: -150, Losses: 2,
			Breakouts: []*domain.Breakout{
				{PNL: -100, CloseReason: domain.CloseReasonStopLoss, Classification: domain.Against, Leverage: 15},
				{PNL: -50, CloseReason: domain.CloseReasonSessionEnd, Classification: domain.Aligned, Leverage: 15},
			},
		},
		{Date: "2025-02-03", Trend: domain.TrendNeutral, RangeWidth: 350, Valid: true, Pnl: 0},
	}
	skipped := []engine.SkippedDay{{Date: "2025-01-04", Width: 950}}

	s := Summarize(records, skipped, 1000)

	assert.Equal(t, 3, s.TotalDays)
	assert.Equal(t, 3, s.TradedDays)
	assert.Equal(t, 1, s.SkippedDays)
	assert.Equal(t, 1, s.WinDays)
	assert.Equal(t, 1, s.LossDays)
	assert.Equal(t, 1, s.FlatDays)

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.InDelta(t, 1.0/3.0, s.WinRate, 1e-9)
	assert.Equal(t, 50.0, s.TotalProfit)
	assert.Equal(t, 1050.0, s.FinalBalance)
	assert.Equal(t, 200.0, s.AverageWin)
	assert.Equal(t, 75.0, s.AverageLoss)
	assert.InDelta(t, 200.0/150.0, s.ProfitFactor, 1e-9)

	// Peak is 1200 after day one, trough 1050 after day two.
	assert.InDelta(t, 150.0/1200.0, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 0.05, s.ReturnOnInvestment, 1e-9)

	assert.Equal(t, 1, s.ExitReasons[domain.CloseReasonTakeProfit])
	assert.Equal(t, 1, s.ExitReasons[domain.CloseReasonStopLoss])
	assert.Equal(t, 1, s.ExitReasons[domain.CloseReasonSessionEnd])
	assert.Equal(t, 2, s.Classification[domain.Aligned])
	assert.Equal(t, 1, s.Classification[domain.Against])
	assert.Equal(t, 1, s.LeverageTiers[10])
	assert.Equal(t, 2, s.LeverageTiers[15])

	require.Equal(t, []string{"2025-01", "2025-02"}, s.SortedMonths())
	assert.Equal(t, 50.0, s.MonthlyReturns["2025-01"])
	assert.Equal(t, 0.0, s.MonthlyReturns["2025-02"])

	require.Len(t, s.EquityCurve, 3)
	assert.Equal(t, 1200.0, s.EquityCurve[0].Balance)
	assert.Equal(t, 1050.0, s.EquityCurve[1].Balance)
}
