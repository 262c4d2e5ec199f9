package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orgchartd/orgchart-service/internal/app"
	"github.com/orgchartd/orgchart-service/internal/config"
	"github.com/orgchartd/orgchart-service/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(openFromEnv)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openFromEnv(ctx context.Context) (*app.Runtime, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return rt, func() {
		rt.Close(context.WithoutCancel(ctx))
		_ = logger.Sync()
	}, nil
}

