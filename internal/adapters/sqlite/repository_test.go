package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"orbbot/internal/domain"
	"orbbot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "orb-bot-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func testBreakout(day string, pnl float64) *domain.Breakout {
	opened := time.Date(2025, 1, 2, 6, 5, 0, 0, time.UTC)
	return &domain.Breakout{
		Symbol:         "BTCUSDT",
		Day:            day,
		Direction:      domain.Long,
		Classification: domain.Aligned,
		EntryPrice:     41050,
		ExitPrice:      40850,
		StopLoss:       40850,
		TakeProfit:     42500,
		Leverage:       10,
		Notional:       0.2436,
		OpenedAt:       opened,
		ClosedAt:       opened.Add(15 * time.Minute),
		Status:         domain.StatusClosed,
		CloseReason:    domain.CloseReasonStopLoss,
		PNL:            pnl,
	}
}

func TestRepository_CreateAndFindBreakout(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	b := testBreakout("2025-01-02", -48.7)
	id, err := repo.CreateBreakout(ctx, b)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, b.ID)

	found, err := repo.FindByDay(ctx, "BTCUSDT", "2025-01-02")
	require.NoError(t, err)
	require.Len(t, found, 1)
	got := found[0]
	assert.Equal(t, b.Day, got.Day)
	assert.Equal(t, b.Direction, got.Direction)
	assert.Equal(t, b.Classification, got.Classification)
	assert.Equal(t, b.EntryPrice, got.EntryPrice)
	assert.Equal(t, b.StopLoss, got.StopLoss)
	assert.Equal(t, b.TakeProfit, got.TakeProfit)
	assert.Equal(t, b.Leverage, got.Leverage)
	assert.Equal(t, b.CloseReason, got.CloseReason)
	assert.Equal(t, b.PNL, got.PNL)
	assert.Equal(t, domain.StatusClosed, got.Status)
}

func TestRepository_FindByDayIsScoped(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.CreateBreakout(ctx, testBreakout("2025-01-02", 10))
	require.NoError(t, err)
	_, err = repo.CreateBreakout(ctx, testBreakout("2025-01-03", 20))
	require.NoError(t, err)

	found, err := repo.FindByDay(ctx, "BTCUSDT", "2025-01-03")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 20.0, found[0].PNL)

	none, err := repo.FindByDay(ctx, "ETHUSDT", "2025-01-03")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_FindRecentHonorsLimit(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b := testBreakout("2025-01-02", float64(i))
		b.OpenedAt = b.OpenedAt.Add(time.Duration(i) * time.Hour)
		_, err := repo.CreateBreakout(ctx, b)
		require.NoError(t, err)
	}

	recent, err := repo.FindRecent(ctx, "BTCUSDT", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 4.0, recent[0].PNL, "most recent first")
}

func TestRepository_AppendDaily(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	rec := &domain.DailyPerformance{
		Date:        "2025-01-02",
		RealizedPnl: -48.7,
		Trades:      2,
		Wins:        0,
		Losses:      2,
		Outcome:     domain.OutcomeLoss,
	}
	require.NoError(t, repo.AppendDaily(ctx, rec))

	// Same date again must map onto the duplicate sentinel.
	err := repo.AppendDaily(ctx, rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrDuplicateEntry))

	history, err := repo.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, *rec, history[0])
}

func TestRepository_HistoryIsDateOrdered(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	dates := []string{"2025-01-05", "2025-01-02", "2025-01-03"}
	for _, d := range dates {
		require.NoError(t, repo.AppendDaily(ctx, &domain.DailyPerformance{Date: d, Outcome: domain.OutcomeFlat}))
	}

	history, err := repo.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2025-01-02", history[0].Date)
	assert.Equal(t, "2025-01-03", history[1].Date)
	assert.Equal(t, "2025-01-05", history[2].Date)
}
