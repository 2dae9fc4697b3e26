package session

import (
	"context"
	"testing"
	"time"

	"orbbot/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var ist = time.FixedZone("IST", 5*3600+1800)

func newTestClock(t *testing.T) *Clock {
	t.Helper()
	c, err := New(Config{
		Location:     ist,
		CalcStart:    5*60 + 30, // 05:30
		CalcEnd:      6 * 60,    // 06:00
		NoNewEntries: 14 * 60,   // 14:00
		Reset:        5 * 60,    // 05:00
	}, nopLogger{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func at(t *testing.T, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 1, day, hour, min, 0, 0, ist)
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"05:30", 330, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClockTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClockTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseClockTime(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNew_RejectsBadOrdering(t *testing.T) {
	_, err := New(Config{Location: ist, CalcStart: 360, CalcEnd: 330, NoNewEntries: 840, Reset: 300}, nopLogger{})
	if err == nil {
		t.Fatal("expected error for calc start after calc end")
	}
	_, err = New(Config{Location: ist, CalcStart: 330, CalcEnd: 840, NoNewEntries: 360, Reset: 300}, nopLogger{})
	if err == nil {
		t.Fatal("expected error for trading window ending before it starts")
	}
	_, err = New(Config{CalcStart: 330, CalcEnd: 360, NoNewEntries: 840, Reset: 300}, nopLogger{})
	if err == nil {
		t.Fatal("expected error for missing location")
	}
}

func TestPhase_HalfOpenBoundaries(t *testing.T) {
	c := newTestClock(t)
	tests := []struct {
		hour, min int
		want      domain.SessionPhase
	}{
		{5, 29, domain.PhaseMonitorOnly},
		{5, 30, domain.PhaseRangeCalc}, // calc start is inclusive
		{5, 59, domain.PhaseRangeCalc},
		{6, 0, domain.PhaseTrading}, // calc end already belongs to trading
		{13, 59, domain.PhaseTrading},
		{14, 0, domain.PhaseMonitorOnly}, // cutoff is exclusive for trading
		{23, 30, domain.PhaseMonitorOnly},
		{2, 0, domain.PhaseMonitorOnly}, // past midnight, still the same session
	}
	for _, tt := range tests {
		if got := c.Phase(at(t, 2, tt.hour, tt.min)); got != tt.want {
			t.Errorf("Phase(%02d:%02d) = %s, want %s", tt.hour, tt.min, got, tt.want)
		}
	}
}

func TestTradingDate_ResetIsDayBoundary(t *testing.T) {
	c := newTestClock(t)
	tests := []struct {
		day, hour, min int
		want           string
	}{
		{2, 6, 0, "2025-01-02"},
		{2, 23, 45, "2025-01-02"},
		{3, 2, 0, "2025-01-02"}, // after midnight tail belongs to the previous day
		{3, 4, 59, "2025-01-02"},
		{3, 5, 0, "2025-01-03"}, // reset instant starts the new day
	}
	for _, tt := range tests {
		if got := c.TradingDate(at(t, tt.day, tt.hour, tt.min)); got != tt.want {
			t.Errorf("TradingDate(day %d %02d:%02d) = %s, want %s", tt.day, tt.hour, tt.min, got, tt.want)
		}
	}
}

func TestCalcWindowDone(t *testing.T) {
	c := newTestClock(t)
	tests := []struct {
		hour, min int
		want      bool
	}{
		{5, 10, false}, // gap between reset and calc start
		{5, 45, false}, // inside the calc window
		{6, 0, true},
		{14, 30, true},
		{2, 0, true}, // past midnight, previous day's window long gone
		{4, 59, true},
	}
	for _, tt := range tests {
		if got := c.CalcWindowDone(at(t, 2, tt.hour, tt.min)); got != tt.want {
			t.Errorf("CalcWindowDone(%02d:%02d) = %v, want %v", tt.hour, tt.min, got, tt.want)
		}
	}
}

func TestCrossedReset(t *testing.T) {
	c := newTestClock(t)
	tests := []struct {
		name      string
		prev, now time.Time
		want      bool
	}{
		{"first tick ever", time.Time{}, at(t, 2, 6, 0), false},
		{"normal crossing", at(t, 2, 4, 59), at(t, 2, 5, 1), true},
		{"exactly at reset", at(t, 2, 4, 50), at(t, 2, 5, 0), true},
		{"already fired today", at(t, 2, 5, 1), at(t, 2, 5, 30), false},
		{"no crossing same day", at(t, 2, 6, 0), at(t, 2, 14, 0), false},
		{"poll gap straddles boundary", at(t, 2, 23, 0), at(t, 3, 6, 0), true},
		{"multi day gap", at(t, 2, 6, 0), at(t, 5, 6, 0), true},
		{"now not after prev", at(t, 2, 6, 0), at(t, 2, 6, 0), false},
	}
	for _, tt := range tests {
		if got := c.CrossedReset(tt.prev, tt.now); got != tt.want {
			t.Errorf("%s: CrossedReset = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCrossedReset_FiresExactlyOncePerDay(t *testing.T) {
	c := newTestClock(t)
	prev := at(t, 2, 4, 0)
	fired := 0
	// Poll every 17 minutes across the boundary and well past it.
	for now := prev.Add(17 * time.Minute); now.Before(at(t, 2, 12, 0)); now = now.Add(17 * time.Minute) {
		if c.CrossedReset(prev, now) {
			fired++
		}
		prev = now
	}
	if fired != 1 {
		t.Fatalf("reset edge fired %d times, want exactly 1", fired)
	}
}
