package orb

import "orbbot/internal/domain"

// ClassifyTrend labels today's trend by comparing its range midpoint to the
// previous valid day's midpoint. With no prior valid day (first day of a run,
// or a run starting mid-history) the trend is NEUTRAL and trades fall back to
// the base leverage tier. Exact equality is NEUTRAL by definition symmetry,
// not UP.
func ClassifyTrend(mid float64, prevValidMid *float64) domain.Trend {
	if prevValidMid == nil {
		return domain.TrendNeutral
	}
	switch {
	case mid > *prevValidMid:
		return domain.TrendUp
	case mid < *prevValidMid:
		return domain.TrendDown
	default:
		return domain.TrendNeutral
	}
}
