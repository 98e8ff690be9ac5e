package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"backtest_go/internal/app"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.BuildEngine(); err != nil {
		slog.Error("engine build failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := bootstrap.RunBacktest(ctx); err != nil {
		slog.Error("backtest failed", slog.Any("error", err))
		os.Exit(1)
	}
	bootstrap.Engine.Dispose()

	// Optionally stay up bridging live quotes until interrupted.
	if err := bootstrap.StartFeed(ctx); err != nil {
		slog.Error("live feed failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.InfoContext(ctx, "shutdown complete")
}
