package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"orbbot/config"
	"orbbot/internal/adapters/logger"
	"orbbot/internal/analytics"
	"orbbot/internal/baseline"
	"orbbot/internal/engine"
	"orbbot/internal/leverage"
	"orbbot/internal/orb"
	"orbbot/internal/session"
	"orbbot/internal/utils"
)

// The replay harness drives the same decision engine the live loop uses over
// historical candles. Order actions fill instantly at the action price, so a
// replay of a period reproduces exactly the decisions live trading would have
// made over it.
func main() {
	var (
		file      = flag.String("file", "", "CSV file of klines to replay (required)")
		capital   = flag.Float64("capital", 0, "initial capital for the report (defaults to BASE_CAPITAL)")
		traceDate = flag.String("trace-date", "", "print a per-tick trace for one trading date (2006-01-02)")
	)
	flag.Parse()
	if *file == "" {
		log.Fatal("FATAL: -file is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if *capital == 0 {
		*capital = cfg.BaseCapital
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	klines, err := utils.ReadKlinesFromCSV(*file)
	if err != nil {
		log.Fatalf("FATAL: Failed to load klines from %s: %v", *file, err)
	}
	appLogger.Info(ctx, "Loaded klines", map[string]interface{}{"file": *file, "count": len(klines)})
	if len(klines) == 0 {
		log.Fatal("FATAL: no klines to replay")
	}

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
	tracker, err := baseline.NewTracker(appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize baseline tracker: %v", err)
	}
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

	apply := func(acts []engine.Action, at time.Time) {
		for _, act := range acts {
			if *traceDate != "" && clock.TradingDate(at) == *traceDate {
				fmt.Printf("%s  %s %s lev=%d price=%.2f reason=%s\n",
					at.In(cfg.Timezone).Format("2006-01-02 15:04"), act.Type, act.Direction, act.Leverage, act.Price, act.Reason)
			}
			var err error
			switch act.Type {
			case engine.ActionOpen:
				err = eng.ApplyOpenFill(ctx, act.Price, at)
			case engine.ActionClose:
				err = eng.ApplyCloseFill(ctx, act.Price, at)
			}
			if err != nil {
				log.Fatalf("FATAL: Failed to apply fill at %s: %v", at, err)
			}
		}
	}

	for _, k := range klines {
		at := k.CloseTime
		apply(eng.Advance(ctx, engine.Tick{Time: at, Candle: k}), at)
	}

	// One final day boundary so the last day archives.
	final := klines[len(klines)-1].CloseTime.Add(24 * time.Hour)
	for i := 0; i < 4; i++ {
		acts := eng.Advance(ctx, engine.Tick{Time: final})
		if len(acts) == 0 {
			break
		}
		apply(acts, final)
		final = final.Add(time.Minute)
	}

	printReport(agg, *capital)
}

func printReport(agg *engine.Aggregator, capital float64) {
	records := agg.Records()
	skipped := agg.Skipped()
	summary := analytics.Summarize(records, skipped, capital)

	fmt.Println()
	fmt.Println("Date        Trend    Width    Trades  W  L  PnL")
	fmt.Println("----------  -------  -------  ------  -  -  ----------")
	for _, rec := range records {
		fmt.Printf("%s  %-7s  %7.1f  %6d  %d  %d  %10.2f\n",
			rec.Date, rec.Trend, rec.RangeWidth, len(rec.Breakouts), rec.Wins, rec.Losses, rec.Pnl)
	}
	for _, sk := range skipped {
		fmt.Printf("%s  skipped  %7.1f  (range outside validity band)\n", sk.Date, sk.Width)
	}

	fmt.Println()
	fmt.Printf("Days: %d traded, %d skipped (%d win / %d loss / %d flat)\n",
		summary.TradedDays, summary.SkippedDays, summary.WinDays, summary.LossDays, summary.FlatDays)
	fmt.Printf("Trades: %d (%d wins, %d losses, win rate %.1f%%)\n",
		summary.TotalTrades, summary.WinningTrades, summary.LosingTrades, summary.WinRate*100)
	fmt.Printf("Total PnL: %.2f (final balance %.2f, ROI %.1f%%)\n",
		summary.TotalProfit, summary.FinalBalance, summary.ReturnOnInvestment*100)
	fmt.Printf("Avg win: %.2f  Avg loss: %.2f  Profit factor: %.2f\n",
		summary.AverageWin, summary.AverageLoss, summary.ProfitFactor)
	fmt.Printf("Max drawdown: %.1f%%\n", summary.MaxDrawdown*100)

	fmt.Println("\nExit reasons:")
	for reason, n := range summary.ExitReasons {
		fmt.Printf("  %-12s %d\n", reason, n)
	}
	fmt.Println("Trend alignment:")
	for class, n := range summary.Classification {
		fmt.Printf("  %-12s %d\n", class, n)
	}
	fmt.Println("Leverage tiers:")
	for lev, n := range summary.LeverageTiers {
		fmt.Printf("  %dx: %d\n", lev, n)
	}
	fmt.Println("\nMonthly returns:")
	for _, month := range summary.SortedMonths() {
		fmt.Printf("  %s: %.2f\n", month, summary.MonthlyReturns[month])
	}
}
