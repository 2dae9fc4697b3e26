package ports

import (
	"context"
	"time"

	"orbbot/internal/domain"
)

// OrderFill represents the essential details returned after placing an order.
type OrderFill struct {
	OrderID     int64     // Exchange's order ID
	Symbol      string    // Symbol for the order
	AvgPrice    float64   // Average filled price (may be 0 for unfilled market orders)
	ExecutedQty float64   // Quantity filled
	Status      string    // Order status (e.g., NEW, FILLED)
	Side        string    // Order side (BUY, SELL)
	Timestamp   time.Time // Time the order response was generated
}

// ExchangeClient defines the interface for the candle feed and the
// order/execution gateway. The decision core never calls it directly; the
// live control loop executes the side effects the engine emits, so gateway
// failures stay retryable by the caller.
type ExchangeClient interface {
	// SetServerTime synchronizes the client's time with the server's time.
	SetServerTime(ctx context.Context) error

	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)

	// GetTickerPrice retrieves the last ticker price for a given symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetAccountBalance retrieves the available balance for an asset (e.g., "USDT").
	GetAccountBalance(ctx context.Context, asset string) (float64, error)

	// GetKlines retrieves the most recent klines for the given symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)

	// GetKlinesRange fetches all klines between start and end, paging past the
	// per-request limit. Returned klines are time-ordered and final.
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error)

	// SetLeverage sets the leverage for a specific symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// PlaceMarketOrder places a market order and returns its fill details.
	PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string) (*OrderFill, error)
}
