package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chart-stream/src/config"
	"chart-stream/src/generators"
	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/server"

	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file (empty for defaults)")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	flag.Parse()

	// Load config from YAML file and environment
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(config.MConfig, config.Name)
	defer appLogger.Sync()

	if *writeConfig != "" {
		if err := config.Save(*writeConfig); err != nil {
			appLogger.Critical("Failed to write config: %v", err)
		}
		appLogger.Info("Config written to %s", *writeConfig)
		return
	}

	helpers.ApplyMemoryLimit(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Data
	provider, err := setupProvider(config)
	if err != nil {
		appLogger.Critical("Failed to init data provider: %v", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	control := setupControl(config)
	store := setupDataset(ctx, config, provider, control)

	scheduler, err := setupScheduler(ctx, config, store)
	if err != nil {
		appLogger.Critical("Failed to init reload scheduler: %v", err)
	}
	watcher, err := setupWatcher(config, store)
	if err != nil {
		appLogger.Critical("Failed to watch source files: %v", err)
	}

	// 2. Servers
	srv := server.NewChartServer(config.MConfig, generators.NewRegistry(), store, logger.NewLogger(config.MConfig, "Server"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if control != nil {
		g.Go(func() error { return control.Serve(gctx) })
	}
	if scheduler != nil {
		scheduler.Start()
		g.Go(func() error {
			<-gctx.Done()
			scheduler.Stop()
			return nil
		})
	}
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	appLogger.Info("%s running (provider: %s)", config.Name, provider.Name())

	if err := g.Wait(); err != nil {
		appLogger.Critical("Server stopped with error: %v", err)
	}
	appLogger.Info("Shutdown complete")
}
