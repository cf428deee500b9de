// Command orderfeed connects to an HFT venue's private-order-feed
// gateway, authenticates, subscribes, and relays a projection of every
// order event back with static credentials attached.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderfeed/client/internal/config"
	"github.com/orderfeed/client/internal/dial"
	"github.com/orderfeed/client/internal/health"
	"github.com/orderfeed/client/internal/observability"
	"github.com/orderfeed/client/internal/supervisor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	code := 0
	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal error", "error", err)
		code = 1
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogEnabled, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting orderfeed client",
		"host", cfg.Host, "port", cfg.Port,
		"workers", cfg.WorkerCount, "channel", cfg.Channel,
	)

	dialer := dial.New(cfg.Host, cfg.Port)

	wcfg := supervisor.WorkerConfig{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Path:        cfg.Path,
		UseMask:     cfg.UseMask,
		Cred:        supervisor.Credentials{APIKey: cfg.APIKey, Sign: cfg.Sign},
		Subscribe:   supervisor.SubscribeTemplate{Channel: cfg.Channel, InstType: cfg.InstType, InstID: cfg.InstID},
		NonBlocking: !cfg.Wait,
		FineCap:     cfg.FineCap,
	}

	sup := supervisor.New(cfg.WorkerCount, wcfg, dialer, logger)
	healthServer := health.NewServer(cfg.HealthAddr, sup, logger)

	supDone := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()
	go func() {
		if err := healthServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	case err := <-errCh:
		slog.Error("component failed", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("health server shutdown error", "error", err)
	}

	select {
	case <-supDone:
	case <-shutdownCtx.Done():
		slog.Warn("workers did not drain before shutdown grace period elapsed")
	}

	slog.Info("shutdown complete")
	return nil
}
