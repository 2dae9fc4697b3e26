package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"orbbot/config"
	"orbbot/internal/domain"
	"orbbot/internal/engine"
	"orbbot/internal/ports"
	"orbbot/internal/snapshot"
)

// TradingService is the live control loop. It polls the exchange for candles,
// feeds ticks into the decision engine, executes the actions the engine emits
// and reports fills back. All trading decisions live in the engine; the
// service only moves data across the gateway boundary.
type TradingService struct {
	cfg       *config.Config
	logger    ports.Logger
	exchange  ports.ExchangeClient
	breakouts ports.BreakoutRepository
	perf      ports.PerformanceRepository
	engine    *engine.Engine
	agg       *engine.Aggregator
	store     *snapshot.Store

	lastCandleOpen time.Time
	feedFailures   int
}

// NewTradingService creates a new application service instance.
func NewTradingService(
	cfg *config.Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	breakouts ports.BreakoutRepository,
	perf ports.PerformanceRepository,
	eng *engine.Engine,
	agg *engine.Aggregator,
	store *snapshot.Store,
) (*TradingService, error) {
	if cfg == nil || logger == nil || exchange == nil || breakouts == nil || perf == nil || eng == nil || agg == nil || store == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}

	s := &TradingService{
		cfg:       cfg,
		logger:    logger,
		exchange:  exchange,
		breakouts: breakouts,
		perf:      perf,
		engine:    eng,
		agg:       agg,
		store:     store,
	}

	// Persist each archived day. A duplicate date means the day was already
	// written before a restart; that is the idempotence working, not a fault.
	agg.SetArchiveHook(func(ctx context.Context, rec domain.DailyPerformance) error {
		err := perf.AppendDaily(ctx, &rec)
		if err != nil && errors.Is(err, ports.ErrDuplicateEntry) {
			logger.Debug(ctx, "daily performance already persisted", map[string]interface{}{"date": rec.Date})
			return nil
		}
		return err
	})

	return s, nil
}

// Start begins the trading bot's main loop and blocks until the context is
// canceled or a fatal error occurs.
func (s *TradingService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Trading Service...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	if err := s.exchange.SetServerTime(ctx); err != nil {
		s.logger.Error(ctx, err, "Failed to synchronize server time")
		return fmt.Errorf("failed to set server time: %w", err)
	}
	if err := s.exchange.Ping(ctx); err != nil {
		s.logger.Error(ctx, err, "Exchange ping failed")
		return fmt.Errorf("exchange unreachable: %w", err)
	}

	// Restore the decision state from the last snapshot. A corrupt snapshot
	// is fatal; trading on a guessed state is worse than not starting.
	var m engine.Memento
	found, err := s.store.Load(&m)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load state snapshot")
		return err
	}
	if found {
		if err := s.engine.Restore(m); err != nil {
			s.logger.Error(ctx, err, "Failed to restore engine state")
			return err
		}
		s.logger.Info(ctx, "Engine state restored from snapshot", map[string]interface{}{"lastTick": m.LastTick})
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.Info(ctx, "Entering polling loop", map[string]interface{}{
		"symbol": s.cfg.Symbol, "interval": s.cfg.CandleInterval, "poll": s.cfg.PollInterval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Context canceled, shutting down")
			s.saveSnapshot(context.Background())
			return nil
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick runs one polling cycle: fetch the latest candle, advance the engine
// and execute whatever it asks for. A feed failure degrades to a clock-only
// tick so phase transitions and the reset edge still happen on time.
func (s *TradingService) tick(ctx context.Context, now time.Time) {
	tick := engine.Tick{Time: now}

	klines, err := s.exchange.GetKlines(ctx, s.cfg.Symbol, s.cfg.CandleInterval, 2)
	if err != nil {
		s.logger.Warn(ctx, "Candle fetch failed, advancing on clock only", map[string]interface{}{"error": err.Error()})
		s.feedFailures++
		if s.feedFailures >= s.cfg.MaxReconnectAttempts {
			s.resync(ctx)
			s.feedFailures = 0
		}
	} else {
		s.feedFailures = 0
		for _, k := range klines {
			if k.IsFinal && k.OpenTime.After(s.lastCandleOpen) && !k.CloseTime.After(now) {
				tick.Candle = k
				s.lastCandleOpen = k.OpenTime
			}
		}
	}

	for _, act := range s.engine.Advance(ctx, tick) {
		s.execute(ctx, act, now)
	}

	s.saveSnapshot(ctx)
}

// execute performs one engine action against the exchange and reports the
// fill back. On any gateway failure the fill is simply not applied; the
// engine re-emits the action on the next tick.
func (s *TradingService) execute(ctx context.Context, act engine.Action, now time.Time) {
	switch act.Type {
	case engine.ActionOpen:
		if err := s.exchange.SetLeverage(ctx, s.cfg.Symbol, act.Leverage); err != nil {
			s.logger.Error(ctx, err, "Failed to set leverage, will retry next tick", map[string]interface{}{"leverage": act.Leverage})
			return
		}
		qty := s.engine.PlannedNotional(act.Price, act.Leverage)
		fill, err := s.exchange.PlaceMarketOrder(ctx, s.cfg.Symbol, act.Direction.OrderSide(), formatQuantity(qty))
		if err != nil {
			s.logger.Error(ctx, err, "Failed to place entry order, will retry next tick", map[string]interface{}{"direction": act.Direction})
			return
		}
		price := fill.AvgPrice
		if price == 0 {
			price = act.Price
		}
		if err := s.engine.ApplyOpenFill(ctx, price, now); err != nil {
			s.logger.Error(ctx, err, "Failed to apply entry fill")
		}

	case engine.ActionClose:
		open := s.engine.OpenPosition()
		if open == nil {
			return
		}
		fill, err := s.exchange.PlaceMarketOrder(ctx, s.cfg.Symbol, open.Direction.CloseSide(), formatQuantity(open.Notional))
		if err != nil {
			s.logger.Error(ctx, err, "Failed to place exit order, will retry next tick", map[string]interface{}{"reason": act.Reason})
			return
		}
		price := fill.AvgPrice
		if price == 0 {
			price = act.Price
		}
		if err := s.engine.ApplyCloseFill(ctx, price, now); err != nil {
			s.logger.Error(ctx, err, "Failed to apply exit fill")
			return
		}
		// The pointer now holds the closed trade.
		if _, err := s.breakouts.CreateBreakout(ctx, open); err != nil {
			s.logger.Error(ctx, err, "Failed to persist closed breakout", map[string]interface{}{"day": open.Day})
		}
	}
}

// resync re-establishes the exchange connection after repeated feed failures.
// Server clock drift is the usual cause of persistent request rejections, so
// the time sync is retried together with the ping.
func (s *TradingService) resync(ctx context.Context) {
	s.logger.Warn(ctx, "Repeated candle fetch failures, resynchronizing exchange connection", map[string]interface{}{
		"failures": s.feedFailures, "delay": s.cfg.ReconnectDelay.String(),
	})
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.ReconnectDelay):
	}
	if err := s.exchange.SetServerTime(ctx); err != nil {
		s.logger.Error(ctx, err, "Server time resync failed")
		return
	}
	if err := s.exchange.Ping(ctx); err != nil {
		s.logger.Error(ctx, err, "Exchange ping failed after resync")
		return
	}
	s.logger.Info(ctx, "Exchange connection re-established")
}

func (s *TradingService) saveSnapshot(ctx context.Context) {
	if err := s.store.Save(s.engine.Snapshot()); err != nil {
		s.logger.Error(ctx, err, "Failed to save state snapshot")
	}
}

func formatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', 3, 64)
}
