package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raffleworld/internal/config"
	"raffleworld/internal/logger"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", envOr("RAFFLEWORLD_CONFIG", "config.yaml"), "path to the YAML config file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "raffleworld: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "raffleworld: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer app.close()

	errCh := make(chan error, 2)

	go app.hub.Run(ctx)
	if app.coordinator != nil {
		go func() {
			if err := app.coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("oracle coordinator: %w", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("listen", cfg.HTTP.Listen), zap.String("oracle mode", cfg.Oracle.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("stopping on error", zap.Error(err))
	case sig := <-waitForInterrupt():
		logger.Info("interrupt received", zap.String("signal", sig.String()))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
}

func waitForInterrupt() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
