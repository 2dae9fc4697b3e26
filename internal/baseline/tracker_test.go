package baseline

import (
	"context"
	"errors"
	"testing"

	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func day(date string, pnl float64) domain.DailyPerformance {
	return domain.DailyPerformance{Date: date, RealizedPnl: pnl, Outcome: domain.OutcomeFor(pnl)}
}

func TestAppend_DuplicateDate(t *testing.T) {
	tr, err := NewTracker(nopLogger{})
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	if err := tr.Append(day("2025-01-02", 50)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	err = tr.Append(day("2025-01-02", -30))
	if !errors.Is(err, ports.ErrDayArchived) {
		t.Fatalf("duplicate append error = %v, want ErrDayArchived", err)
	}
	if len(tr.History()) != 1 {
		t.Fatalf("history length = %d, want 1", len(tr.History()))
	}
}

func TestStats_InvalidUntilEnoughSamples(t *testing.T) {
	tr, _ := NewTracker(nopLogger{})

	// Three wins but only two losses: one counter short, baseline invalid.
	recs := []domain.DailyPerformance{
		day("2025-01-01", 100), day("2025-01-02", 120), day("2025-01-03", 80),
		day("2025-01-04", -60), day("2025-01-05", -90),
	}
	if err := tr.Seed(recs); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, ok := tr.Stats(); ok {
		t.Fatal("baseline valid with only two losing days")
	}

	// Third losing day makes it valid.
	if err := tr.Append(day("2025-01-06", -90)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s, ok := tr.Stats()
	if !ok {
		t.Fatal("baseline invalid with three wins and three losses")
	}
	if s.WinCount != 3 || s.LossCount != 3 {
		t.Fatalf("counts = %d/%d, want 3/3", s.WinCount, s.LossCount)
	}
	if s.AvgWinPnl != 100 {
		t.Errorf("AvgWinPnl = %.2f, want 100", s.AvgWinPnl)
	}
	if s.AvgLossPnl != 80 {
		t.Errorf("AvgLossPnl = %.2f, want 80 (absolute value)", s.AvgLossPnl)
	}
}

func TestStats_FlatDaysCountForNeither(t *testing.T) {
	tr, _ := NewTracker(nopLogger{})
	recs := []domain.DailyPerformance{
		day("2025-01-01", 100), day("2025-01-02", 100), day("2025-01-03", 100),
		day("2025-01-04", -50), day("2025-01-05", -50),
		day("2025-01-06", 0), day("2025-01-07", 0),
	}
	if err := tr.Seed(recs); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	s, ok := tr.Stats()
	if ok {
		t.Fatal("flat days must not satisfy the loss counter")
	}
	if s.WinCount != 3 || s.LossCount != 2 {
		t.Fatalf("counts = %d/%d, want 3/2", s.WinCount, s.LossCount)
	}
}

func TestLast(t *testing.T) {
	tr, _ := NewTracker(nopLogger{})
	if _, ok := tr.Last(); ok {
		t.Fatal("Last on empty tracker reported a record")
	}
	tr.Append(day("2025-01-01", 10))
	tr.Append(day("2025-01-02", -20))
	last, ok := tr.Last()
	if !ok || last.Date != "2025-01-02" {
		t.Fatalf("Last = %+v, want the 2025-01-02 record", last)
	}
}
