package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/app"
	"github.com/markdave123-py/resumex/internal/config"
	"github.com/markdave123-py/resumex/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()

	zl, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = zl.Sync() }()

	application, err := app.NewApp(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}

	go func() {
		if err := application.Server.Start(); err != nil {
			zl.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	zl.Info("resumex is running", zap.Bool("storage", application.DBClient != nil))
	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("shutdown", zap.Error(err))
	}
	application.Close()
	zl.Info("stopped")
}
