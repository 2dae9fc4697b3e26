package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"orbbot/config"
	"orbbot/internal/adapters/binanceclient"
	"orbbot/internal/adapters/logger"
	"orbbot/internal/utils"
)

func main() {
	var (
		interval = flag.String("interval", "", "kline interval (defaults to CANDLE_INTERVAL)")
		days     = flag.Int("days", 90, "number of days of history to fetch")
		out      = flag.String("out", "", "output CSV path (defaults to data/<symbol>_<interval>_<range>.csv)")
	)
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if *interval == "" {
		*interval = cfg.CandleInterval
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	fmt.Printf("Fetching klines for %s %s from %s to %s...\n", cfg.Symbol, *interval, start, end)
	klines, err := binanceClient.GetKlinesRange(context.Background(), cfg.Symbol, *interval, start, end)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched klines", map[string]interface{}{"count": len(klines)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", cfg.Symbol, *interval, start.Format("20060102"), end.Format("20060102"))
	}
	if err := utils.WriteKlinesToCSV(klines, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": filename})
}
