package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"orbbot/config"
	"orbbot/internal/adapters/binanceclient"
	"orbbot/internal/adapters/logger"
	"orbbot/internal/adapters/sqlite"
	"orbbot/internal/app"
	"orbbot/internal/baseline"
	"orbbot/internal/engine"
	"orbbot/internal/leverage"
	"orbbot/internal/orb"
	"orbbot/internal/session"
	"orbbot/internal/snapshot"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// 5. Initialize the decision core
	clock, err := session.New(session.Config{
		Location:     cfg.Timezone,
		CalcStart:    cfg.CalcStart,
		CalcEnd:      cfg.CalcEnd,
		NoNewEntries: cfg.NoNewEntries,
		Reset:        cfg.ResetTime,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize session clock: %v", err)
	}

	calc, err := orb.NewCalculator(cfg.MinRange, cfg.MaxRange)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize range calculator: %v", err)
	}

	policy, err := leverage.FromConfig(cfg.AdaptiveLeverage, leverage.Tiers{
		Base:       cfg.BaseLeverage,
		Aggressive: cfg.AggressiveLeverage,
		Reduced:    cfg.ReducedLeverage,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize leverage policy: %v", err)
	}
	appLogger.Info(ctx, "Leverage policy selected", map[string]interface{}{"policy": policy.Name()})

	tracker, err := baseline.NewTracker(appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize baseline tracker: %v", err)
	}
	history, err := repo.History(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load performance history")
		log.Fatalf("FATAL: Failed to load performance history: %v", err)
	}
	if err := tracker.Seed(history); err != nil {
		log.Fatalf("FATAL: Failed to seed baseline tracker: %v", err)
	}
	appLogger.Info(ctx, "Performance history loaded", map[string]interface{}{"days": len(history)})

	agg, err := engine.NewAggregator(tracker, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize day aggregator: %v", err)
	}

	eng, err := engine.New(engine.Config{
		Symbol:          cfg.Symbol,
		BaseCapital:     cfg.BaseCapital,
		MaxBreakoutsDay: cfg.MaxBreakoutsPerDay,
	}, clock, calc, policy, tracker, agg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize decision engine: %v", err)
	}

	store, err := snapshot.NewStore(cfg.SnapshotPath, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize snapshot store: %v", err)
	}

	// 6. Initialize Application Service
	tradingService, err := app.NewTradingService(cfg, appLogger, binanceClient, repo, repo, eng, agg, store)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trading service")
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}

	// 7. Start the Service
	if err := tradingService.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Trading service exited with error")
		log.Fatalf("FATAL: Trading service exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
