package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chart-stream/src/config"
	datasource "chart-stream/src/data_source"
	"chart-stream/src/logger"
	"chart-stream/src/storage"
)

// -----------------------------------------------------------------------------

// seed imports JSON record files into the SQLite or Postgres tables named in
// the config, replacing their contents.
func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	timeValuesFile := flag.String("time-values", "data/time_values.json", "JSON array of {timestamp,value}")
	ohlcFile := flag.String("ohlc", "data/ohlc.json", "JSON array of {timestamp,open,high,low,close}")
	flag.Parse()

	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(config.MConfig, "Seed")
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := datasource.NewJSONProvider(nil, appLogger.Named("json"))
	req := storage.ImportRequest{
		TimeValuesTable: config.Data.TimeValuesSource,
		OhlcTable:       config.Data.OhlcSource,
	}
	if req.TimeValues, err = reader.LoadTimeValueRecords(ctx, *timeValuesFile); err != nil {
		appLogger.Critical("Failed to read %s: %v", *timeValuesFile, err)
	}
	if req.Ohlc, err = reader.LoadOhlcRecords(ctx, *ohlcFile); err != nil {
		appLogger.Critical("Failed to read %s: %v", *ohlcFile, err)
	}

	switch config.Data.Provider {
	case storage.SQLiteProviderName:
		db := storage.NewSQLiteDB(config.MConfig, appLogger.Named("SQLiteDB"))
		if err := db.Initialize(ctx); err != nil {
			appLogger.Critical("Failed to open sqlite: %v", err)
		}
		defer db.Close()
		err = db.Import(ctx, req)
	case storage.PostgresProviderName:
		db := storage.NewPostgresDB(config.MConfig, appLogger.Named("PostgresDB"))
		if err := db.Initialize(ctx); err != nil {
			appLogger.Critical("Failed to connect to postgres: %v", err)
		}
		defer db.Close()
		err = db.Import(ctx, req)
	default:
		appLogger.Critical("Provider %q is not a database; set data.provider to sqlite or postgres", config.Data.Provider)
	}

	if err != nil {
		appLogger.Critical("Import failed: %v", err)
	}
	appLogger.Info("Seeded %d time/value records and %d OHLC bars", len(req.TimeValues), len(req.Ohlc))
}
