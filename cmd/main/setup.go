package main

import (
	"context"

	"chart-stream/src/config"
	datasource "chart-stream/src/data_source"
	"chart-stream/src/grpc_control"
	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/storage"
	"chart-stream/src/utils"
)

// -----------------------------------------------------------------------------

// setupProvider builds the data provider selected in config.
func setupProvider(cfg *config.Config) (interfaces.IDataProvider, error) {
	providerLogger := logger.NewLogger(cfg.MConfig, "Provider")
	return datasource.NewProvider(cfg.MConfig, providerLogger, map[string]datasource.SQLProviderFactory{
		storage.SQLiteProviderName:   storage.OpenSQLiteProvider,
		storage.PostgresProviderName: storage.OpenPostgresProvider,
	})
}

// -----------------------------------------------------------------------------

// setupDataset creates the dataset store and performs the startup load.
func setupDataset(ctx context.Context, cfg *config.Config, provider interfaces.IDataProvider, control *grpc_control.ControlService) *datasource.DatasetStore {
	store := datasource.NewDatasetStore(provider, cfg.MConfig, logger.NewLogger(cfg.MConfig, "Dataset"))
	if control != nil {
		store.OnPublish(control.OnDatasetPublished)
	}

	// failures are already logged; the server starts with whatever loaded
	_, _ = store.Reload(ctx, datasource.TriggerStartup)
	return store
}

// -----------------------------------------------------------------------------

// setupScheduler registers the cron reload, or returns nil when none is configured.
func setupScheduler(ctx context.Context, cfg *config.Config, store *datasource.DatasetStore) (*datasource.Scheduler, error) {
	if cfg.Data.ReloadCron == "" {
		return nil, nil
	}

	schedLogger := logger.NewLogger(cfg.MConfig, "Scheduler")
	gate := utils.NewMarketGate(cfg.Data.MarketHoursOnly, cfg.Data.MarketMIC, schedLogger)

	sched := datasource.NewScheduler(ctx, store, gate, schedLogger)
	if err := sched.Register(cfg.Data.ReloadCron); err != nil {
		return nil, err
	}
	return sched, nil
}

// -----------------------------------------------------------------------------

// setupWatcher watches local source files, or returns nil when disabled.
func setupWatcher(cfg *config.Config, store *datasource.DatasetStore) (*datasource.Watcher, error) {
	if !cfg.Data.WatchFiles {
		return nil, nil
	}
	files := store.LocalFiles()
	if len(files) == 0 {
		return nil, nil
	}
	return datasource.NewWatcher(store, files, logger.NewLogger(cfg.MConfig, "Watcher"))
}

// -----------------------------------------------------------------------------

// setupControl builds the gRPC health service when a port is configured.
func setupControl(cfg *config.Config) *grpc_control.ControlService {
	if cfg.GrpcPort == 0 {
		return nil
	}
	return grpc_control.NewControlService(cfg.MConfig, logger.NewLogger(cfg.MConfig, "gRPC"))
}
