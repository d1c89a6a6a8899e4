package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"newsdiff/internal/app"
	"newsdiff/internal/config"
	"newsdiff/internal/logging"
)

func main() {
	useCron := flag.Bool("cron", false, "run on the configured in-process schedule instead of once")
	flag.Parse()

	// A missing .env file is fine; the environment may be set externally.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *useCron {
		if err := application.RunScheduled(ctx); err != nil {
			logger.Error("scheduler stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	// Per-article failures are logged inside the run and still exit zero;
	// only feed-level failures make the whole run meaningless.
	if err := application.RunOnce(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}
