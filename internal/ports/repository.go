package ports

import (
	"context"

	"orbbot/internal/domain"
)

// BreakoutRepository defines the interface for storing and retrieving closed
// breakout trades.
type BreakoutRepository interface {
	// CreateBreakout saves a closed breakout and returns its assigned ID.
	CreateBreakout(ctx context.Context, b *domain.Breakout) (int64, error)
	// FindByDay retrieves all breakouts recorded for a trading date.
	FindByDay(ctx context.Context, symbol, date string) ([]*domain.Breakout, error)
	// FindRecent retrieves the most recent breakouts for a symbol, up to a limit.
	FindRecent(ctx context.Context, symbol string, limit int) ([]*domain.Breakout, error)
}

// PerformanceRepository defines the interface for the append-only daily
// performance history consumed by the baseline tracker.
type PerformanceRepository interface {
	// AppendDaily saves one day's record. Returns ErrDuplicateEntry if the
	// date is already archived; callers rely on this for idempotent resets.
	AppendDaily(ctx context.Context, rec *domain.DailyPerformance) error
	// History retrieves all records ordered by date ascending.
	History(ctx context.Context) ([]domain.DailyPerformance, error)
}
