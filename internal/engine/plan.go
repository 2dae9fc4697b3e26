package engine

import (
	"fmt"

	"orbbot/internal/ports"
)

// EntryStep is one rung of the entry ladder: the proportion of the full
// position notional committed at that step.
type EntryStep struct {
	Proportion float64 `json:"proportion"`
}

// EntryPlan describes how a breakout position is built up. The current
// configuration commits everything in the first step; later steps carry zero
// proportion and exist so scaled entries can be introduced without reshaping
// the engine.
type EntryPlan struct {
	Steps []EntryStep `json:"steps"`
}

// DefaultEntryPlan returns the single full-size entry.
func DefaultEntryPlan() EntryPlan {
	return EntryPlan{Steps: []EntryStep{{Proportion: 1.0}, {Proportion: 0}, {Proportion: 0}}}
}

// Validate checks the ladder is usable: the first step must commit something
// and the total must not exceed the full position.
func (p EntryPlan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: entry plan needs at least one step", ports.ErrConfigurationError)
	}
	if p.Steps[0].Proportion <= 0 {
		return fmt.Errorf("%w: first entry step proportion must be positive", ports.ErrConfigurationError)
	}
	var total float64
	for _, s := range p.Steps {
		if s.Proportion < 0 {
			return fmt.Errorf("%w: entry step proportion must not be negative", ports.ErrConfigurationError)
		}
		total += s.Proportion
	}
	if total > 1.0 {
		return fmt.Errorf("%w: entry step proportions must not exceed 1.0", ports.ErrConfigurationError)
	}
	return nil
}

func (p EntryPlan) initialProportion() float64 {
	return p.Steps[0].Proportion
}
