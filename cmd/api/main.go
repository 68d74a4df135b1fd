package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/wolfman30/visitplus-leads/cmd/mainconfig"
	"github.com/wolfman30/visitplus-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting visitplus-leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"variant", cfg.LeadVariant,
	)

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, awsLoader(cfg), logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := newServer(cfg, app.Handler)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func awsLoader(cfg *appconfig.Config) bootstrap.AWSLoader {
	return func(ctx context.Context) (aws.Config, error) {
		return mainconfig.LoadAWSConfig(ctx, cfg)
	}
}

// newServer sizes timeouts for photo uploads, which can carry several
// multi-megabyte images.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	writeTimeout := 15 * time.Second
	if cfg.DeliveryTimeout > 0 {
		// Every plan step may use its full timeout before the response is written.
		writeTimeout += 4 * cfg.DeliveryTimeout
	}
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
