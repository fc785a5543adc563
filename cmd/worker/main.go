package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/app"
	"github.com/avoroshilov/lessonbook/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if cfg.TelegramToken == "" {
		logger.Fatal("TELEGRAM_TOKEN is required for the reminder worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer deps.Close()

	b, err := tgbot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	scheduler := app.NewReminderScheduler(deps.BookingRepo, deps.Settings, b, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("🚀 Reminder worker started",
		zap.String("environment", cfg.Environment),
	)

	<-ctx.Done()
	logger.Info("Reminder worker stopped")
}
