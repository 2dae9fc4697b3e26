package orb

import (
	"fmt"

	"orbbot/internal/domain"
	"orbbot/internal/ports"
)

// Calculator derives the opening-range levels from the candles observed
// inside the calculation window and applies the range-width validity filter.
type Calculator struct {
	minRange float64
	maxRange float64
}

// NewCalculator creates a range calculator with the [minRange, maxRange]
// validity band. Both bounds are inclusive.
func NewCalculator(minRange, maxRange float64) (*Calculator, error) {
	if minRange < 0 {
		return nil, fmt.Errorf("%w: minimum range cannot be negative", ports.ErrConfigurationError)
	}
	if maxRange < minRange {
		return nil, fmt.Errorf("%w: maximum range must be at least the minimum range", ports.ErrConfigurationError)
	}
	return &Calculator{minRange: minRange, maxRange: maxRange}, nil
}

// Compute freezes the range levels for a day from its calculation-window
// candles. An empty window yields an invalid day, not an error: the day
// simply proceeds with no trading.
func (c *Calculator) Compute(candles []*domain.Kline) domain.RangeLevels {
	if len(candles) == 0 {
		return domain.RangeLevels{Valid: false}
	}

	high := candles[0].High
	low := candles[0].Low
	for _, k := range candles[1:] {
		if k.High > high {
			high = k.High
		}
		if k.Low < low {
			low = k.Low
		}
	}

	width := high - low
	return domain.RangeLevels{
		High:    high,
		Low:     low,
		Mid:     (high + low) / 2,
		Width:   width,
		Valid:   width >= c.minRange && width <= c.maxRange,
		Candles: len(candles),
	}
}
