package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/unklstewy/plane-spotter/internal/app"
	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	icao := flag.String("icao", "", "ICAO hex address to track (overrides aircraft.icao_hex)")
	iterations := flag.Int("iterations", -1, "Number of polling iterations, 0 runs until interrupted (overrides tracker.iterations)")
	dryRun := flag.Bool("dry-run", false, "Log notifications instead of sending them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if *icao != "" {
		cfg.Aircraft.ICAOHex = *icao
	}
	if *iterations >= 0 {
		cfg.Tracker.Iterations = *iterations
	}
	if *dryRun {
		cfg.Notification.Driver = "log"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	lg := log.New(cfg.Log)
	defer lg.Close()

	lg = lg.With("icao", cfg.Aircraft.ICAOHex)
	lg.Info("starting plane-spotter",
		"config", *configPath,
		"radius_km", cfg.Tracker.SearchRadiusKm,
		"poll_interval", cfg.Tracker.PollInterval(),
		"iterations", cfg.Tracker.Iterations)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Error("startup failed", "error", err)
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			return 2
		}
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("shutdown", "error", err)
		}
	}()

	if err := a.Runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			lg.Info("interrupted, shutting down")
			return 0
		}
		lg.Error("tracking stopped", "error", err)
		return 1
	}

	lg.Info("finished tracking", "iterations", cfg.Tracker.Iterations)
	return 0
}
