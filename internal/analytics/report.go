package analytics

import (
	"sort"

	"orbbot/internal/domain"
	"orbbot/internal/engine"
)

// Summary holds the performance metrics of a replayed or live trading period,
// computed over the archived day records.
type Summary struct {
	// Day-level metrics
	TotalDays   int
	TradedDays  int
	SkippedDays int
	WinDays     int
	LossDays    int
	FlatDays    int

	// Trade-level metrics
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalProfit   float64
	AverageWin    float64
	AverageLoss   float64
	ProfitFactor  float64

	// Equity metrics over the cumulative daily PnL
	FinalBalance       float64
	MaxDrawdown        float64
	ReturnOnInvestment float64
	EquityCurve        []EquityPoint

	// Strategy breakdowns
	ExitReasons    map[domain.CloseReason]int
	Classification map[domain.Classification]int
	LeverageTiers  map[int]int
	MonthlyReturns map[string]float64
}

// EquityPoint is one day on the equity curve.
type EquityPoint struct {
	Date     string
	Balance  float64
	Drawdown float64
}

// Summarize computes the summary over archived day records, oldest first.
func Summarize(records []engine.DayRecord, skipped []engine.SkippedDay, initialCapital float64) *Summary {
	s := &Summary{
		FinalBalance:   initialCapital,
		ExitReasons:    make(map[domain.CloseReason]int),
		Classification: make(map[domain.Classification]int),
		LeverageTiers:  make(map[int]int),
		MonthlyReturns: make(map[string]float64),
		SkippedDays:    len(skipped),
	}
	if len(records) == 0 {
		return s
	}

	balance := initialCapital
	peak := initialCapital
	var winSum, lossSum float64

	for _, rec := range records {
		s.TotalDays++
		if rec.Valid {
			s.TradedDays++
		}
		switch {
		case rec.Pnl > 0:
			s.WinDays++
		case rec.Pnl < 0:
			s.LossDays++
		default:
			s.FlatDays++
		}

		for _, b := range rec.Breakouts {
			s.TotalTrades++
			switch {
			case b.PNL > 0:
				s.WinningTrades++
				winSum += b.PNL
			case b.PNL < 0:
				s.LosingTrades++
				lossSum += -b.PNL
			}
			s.ExitReasons[b.CloseReason]++
			s.Classification[b.Classification]++
			s.LeverageTiers[b.Leverage]++
		}
		balance += rec.Pnl
		s.TotalProfit += rec.Pnl
		s.MonthlyReturns[monthKey(rec.Date)] += rec.Pnl

		if balance > peak {
			peak = balance
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - balance) / peak
		}
		if dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
		s.EquityCurve = append(s.EquityCurve, EquityPoint{Date: rec.Date, Balance: balance, Drawdown: dd})
	}

	s.FinalBalance = balance
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AverageWin = winSum / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = lossSum / float64(s.LosingTrades)
	}
	if lossSum > 0 {
		s.ProfitFactor = winSum / lossSum
	}
	if initialCapital > 0 {
		s.ReturnOnInvestment = (balance - initialCapital) / initialCapital
	}
	return s
}

// SortedMonths returns the months present in the summary in ascending order.
func (s *Summary) SortedMonths() []string {
	months := make([]string, 0, len(s.MonthlyReturns))
	for m := range s.MonthlyReturns {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

func monthKey(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}
