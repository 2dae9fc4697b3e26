package engine

import (
	"context"
	"testing"

	"orbbot/internal/baseline"
	"orbbot/internal/leverage"
	"orbbot/internal/orb"
	"orbbot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    EntryPlan
		wantErr bool
	}{
		{"default", DefaultEntryPlan(), false},
		{"single full step", EntryPlan{Steps: []EntryStep{{Proportion: 1.0}}}, false},
		{"half committed", EntryPlan{Steps: []EntryStep{{Proportion: 0.5}, {Proportion: 0.25}}}, false},
		{"no steps", EntryPlan{}, true},
		{"zero first step", EntryPlan{Steps: []EntryStep{{Proportion: 0}, {Proportion: 1.0}}}, true},
		{"negative step", EntryPlan{Steps: []EntryStep{{Proportion: 0.5}, {Proportion: -0.1}}}, true},
		{"over-committed", EntryPlan{Steps: []EntryStep{{Proportion: 0.8}, {Proportion: 0.4}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntryPlanScalesNotional(t *testing.T) {
	logger := nopLogger{}
	clock, err := session.New(session.Config{
		Location:     ist,
		CalcStart:    5*60 + 30,
		CalcEnd:      6 * 60,
		NoNewEntries: 14 * 60,
		Reset:        5 * 60,
	}, logger)
	require.NoError(t, err)
	calc, err := orb.NewCalculator(300, 900)
	require.NoError(t, err)
	policy, err := leverage.FromConfig(false, leverage.Tiers{Base: 10, Aggressive: 15, Reduced: 5})
	require.NoError(t, err)
	tracker, err := baseline.NewTracker(logger)
	require.NoError(t, err)
	agg, err := NewAggregator(tracker, logger)
	require.NoError(t, err)

	eng, err := New(Config{
		Symbol:          "BTCUSDT",
		BaseCapital:     1000,
		MaxBreakoutsDay: 4,
		Plan:            EntryPlan{Steps: []EntryStep{{Proportion: 0.5}, {Proportion: 0.5}}},
	}, clock, calc, policy, tracker, agg, logger)
	require.NoError(t, err)

	h := &harness{t: t, ctx: context.Background(), eng: eng, agg: agg, tracker: tracker}
	h.seedDay(2)

	c := k(2, 6, 5, 40950, 41060, 40900, 41050)
	acts := h.step(c)
	require.Len(t, acts, 1)

	pos := eng.OpenPosition()
	require.NotNil(t, pos)
	assert.InDelta(t, 1000*10*0.5/41050, pos.Notional, 1e-9)
}
