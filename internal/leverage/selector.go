package leverage

import (
	"fmt"

	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

// Tiers holds the three leverage tiers a day can trade at.
type Tiers struct {
	Base       int // Trend-aligned and neutral-fallback trades (10x)
	Aggressive int // Against-trend trades (15x)
	Reduced    int // Any trade after a larger-than-baseline loss day (5x)
}

// Validate checks the tier values.
func (t Tiers) Validate() error {
	if t.Base <= 0 || t.Aggressive <= 0 || t.Reduced <= 0 {
		return fmt.Errorf("%w: leverage tiers must be positive", ports.ErrConfigurationError)
	}
	return nil
}

// Context carries the per-day inputs to tier selection. Both flags are
// computed once per day at the start of trading and never re-evaluated
// intra-day.
type Context struct {
	// BaselineValid is true once the win/loss history has enough samples.
	BaselineValid bool
	// BigLossCarry is true when yesterday's realized loss magnitude exceeded
	// yesterday's applicable baseline average loss.
	BigLossCarry bool
}

// Policy selects the leverage tier for a trade about to open. The two
// variants, Adaptive and Fixed, are chosen at configuration time so the
// adaptive-vs-fixed branching lives in one place instead of scattered
// conditionals.
type Policy interface {
	Select(class domain.Classification, ctx Context) int
	Name() string
}

// Fixed always returns the base tier regardless of classification or
// baseline. This reproduces the non-adaptive live deployment exactly.
type Fixed struct {
	tiers Tiers
}

// NewFixed creates the fixed policy.
func NewFixed(tiers Tiers) (*Fixed, error) {
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	return &Fixed{tiers: tiers}, nil
}

func (f *Fixed) Select(domain.Classification, Context) int { return f.tiers.Base }
func (f *Fixed) Name() string                              { return "fixed" }

// Adaptive reduces leverage after an abnormally large loss day and otherwise
// maps classification to tier: aligned and neutral-fallback trade at the base
// tier, against-trend at the aggressive tier. With an invalid baseline it
// behaves exactly like Fixed.
type Adaptive struct {
	tiers Tiers
}

// NewAdaptive creates the adaptive policy.
func NewAdaptive(tiers Tiers) (*Adaptive, error) {
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	return &Adaptive{tiers: tiers}, nil
}

func (a *Adaptive) Select(class domain.Classification, ctx Context) int {
	if !ctx.BaselineValid {
		return a.tiers.Base
	}
	if ctx.BigLossCarry {
		return a.tiers.Reduced
	}
	if class == domain.Against {
		return a.tiers.Aggressive
	}
	return a.tiers.Base
}

func (a *Adaptive) Name() string { return "adaptive" }

// FromConfig picks the policy variant from the static config toggle.
func FromConfig(adaptiveEnabled bool, tiers Tiers) (Policy, error) {
	if adaptiveEnabled {
		return NewAdaptive(tiers)
	}
	return NewFixed(tiers)
}
