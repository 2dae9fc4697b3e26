package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"orbbot/internal/domain"
	"orbbot/internal/ports"

	"github.com/mattn/go-sqlite3"
)

// Repository implements ports.BreakoutRepository and ports.PerformanceRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/orb_bot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS breakouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		day TEXT NOT NULL,
		direction TEXT NOT NULL,
		classification TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL DEFAULT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		leverage INTEGER NOT NULL,
		notional REAL NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		status TEXT NOT NULL,
		close_reason TEXT NULL,
		pnl REAL DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_performance (
		date TEXT PRIMARY KEY,
		realized_pnl REAL NOT NULL,
		trades INTEGER NOT NULL,
		wins INTEGER NOT NULL,
		losses INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_breakouts_symbol_day ON breakouts (symbol, day);
	CREATE INDEX IF NOT EXISTS idx_breakouts_symbol_opened ON breakouts (symbol, opened_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("%w: schema initialization: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- BreakoutRepository Implementation ---

// CreateBreakout saves a breakout trade and returns its assigned ID.
func (r *Repository) CreateBreakout(ctx context.Context, b *domain.Breakout) (int64, error) {
	const query = `
	INSERT INTO breakouts (symbol, day, direction, classification, entry_price, exit_price,
	                       stop_loss, take_profit, leverage, notional, opened_at, closed_at,
	                       status, close_reason, pnl)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var closedAt sql.NullTime
	if !b.ClosedAt.IsZero() {
		closedAt = sql.NullTime{Time: b.ClosedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		b.Symbol, b.Day, b.Direction, b.Classification, b.EntryPrice, b.ExitPrice,
		b.StopLoss, b.TakeProfit, b.Leverage, b.Notional, b.OpenedAt, closedAt,
		b.Status, b.CloseReason, b.PNL)
	if err != nil {
		return 0, fmt.Errorf("failed to insert breakout for symbol %s: %w", b.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for breakout %s: %w", b.Symbol, err)
	}
	b.ID = id
	r.logger.Debug(ctx, "Breakout persisted", map[string]interface{}{"breakoutID": id, "symbol": b.Symbol, "day": b.Day})
	return id, nil
}

// FindByDay retrieves all breakouts recorded for a trading date, oldest first.
func (r *Repository) FindByDay(ctx context.Context, symbol, date string) ([]*domain.Breakout, error) {
	const query = `
	SELECT id, symbol, day, direction, classification, entry_price, COALESCE(exit_price, 0),
	       stop_loss, take_profit, leverage, notional, opened_at, closed_at, status,
	       close_reason, COALESCE(pnl, 0)
	FROM breakouts
	WHERE symbol = ? AND day = ?
	ORDER BY opened_at ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakouts for day %s: %w", date, err)
	}
	defer rows.Close()

	return collectBreakouts(rows)
}

// FindRecent retrieves the most recent breakouts for a symbol, up to a limit.
func (r *Repository) FindRecent(ctx context.Context, symbol string, limit int) ([]*domain.Breakout, error) {
	const query = `
	SELECT id, symbol, day, direction, classification, entry_price, COALESCE(exit_price, 0),
	       stop_loss, take_profit, leverage, notional, opened_at, closed_at, status,
	       close_reason, COALESCE(pnl, 0)
	FROM breakouts
	WHERE symbol = ?
	ORDER BY opened_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent breakouts for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	return collectBreakouts(rows)
}

// --- PerformanceRepository Implementation ---

// AppendDaily saves one archived day. The date is the primary key, so a
// replayed reset maps onto ErrDuplicateEntry instead of double-counting.
func (r *Repository) AppendDaily(ctx context.Context, rec *domain.DailyPerformance) error {
	const query = `
	INSERT INTO daily_performance (date, realized_pnl, trades, wins, losses, outcome)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.Date, rec.RealizedPnl, rec.Trades, rec.Wins, rec.Losses, rec.Outcome)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: daily performance for %s", ports.ErrDuplicateEntry, rec.Date)
		}
		return fmt.Errorf("failed to insert daily performance for %s: %w", rec.Date, err)
	}
	r.logger.Debug(ctx, "Daily performance persisted", map[string]interface{}{"date": rec.Date, "pnl": rec.RealizedPnl})
	return nil
}

// History retrieves all daily performance records ordered by date ascending.
func (r *Repository) History(ctx context.Context) ([]domain.DailyPerformance, error) {
	const query = `
	SELECT date, realized_pnl, trades, wins, losses, outcome
	FROM daily_performance
	ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily performance history: %w", err)
	}
	defer rows.Close()

	recs := make([]domain.DailyPerformance, 0)
	for rows.Next() {
		var rec domain.DailyPerformance
		var outcome string
		if err := rows.Scan(&rec.Date, &rec.RealizedPnl, &rec.Trades, &rec.Wins, &rec.Losses, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan daily performance row: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily performance rows: %w", err)
	}
	return recs, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func collectBreakouts(rows *sql.Rows) ([]*domain.Breakout, error) {
	breakouts := make([]*domain.Breakout, 0)
	for rows.Next() {
		b, err := scanBreakout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan breakout row: %w", err)
		}
		breakouts = append(breakouts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakout rows: %w", err)
	}
	return breakouts, nil
}

// scanBreakout scans a row into a domain.Breakout struct.
func scanBreakout(s scanner) (*domain.Breakout, error) {
	b := &domain.Breakout{}
	var closedAt sql.NullTime
	var status, direction, classification string
	var closeReason sql.NullString
	err := s.Scan(
		&b.ID, &b.Symbol, &b.Day, &direction, &classification, &b.EntryPrice, &b.ExitPrice,
		&b.StopLoss, &b.TakeProfit, &b.Leverage, &b.Notional, &b.OpenedAt, &closedAt,
		&status, &closeReason, &b.PNL)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if closedAt.Valid {
		b.ClosedAt = closedAt.Time
	}
	b.Direction = domain.Direction(direction)
	b.Classification = domain.Classification(classification)
	b.Status = domain.PositionStatus(status)
	if closeReason.Valid {
		b.CloseReason = domain.CloseReason(closeReason.String)
	} else {
		b.CloseReason = domain.CloseReasonUnknown
	}
	return b, nil
}
