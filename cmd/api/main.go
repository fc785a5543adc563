package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/app"
	"github.com/avoroshilov/lessonbook/internal/config"
	"github.com/avoroshilov/lessonbook/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer deps.Close()

	srv := server.New(cfg, server.Services{
		Users:    deps.Users,
		Subjects: deps.Subjects,
		Teachers: deps.Teachers,
		Slots:    deps.Slots,
		Bookings: deps.Bookings,
		Settings: deps.Settings,
		Reports:  deps.Reports,
	}, logger)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")
		if err := srv.Shutdown(); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("🚀 Starting API server",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("environment", cfg.Environment),
	)

	if err := srv.Listen(); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
