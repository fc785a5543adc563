package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/app"
	botcontroller "github.com/avoroshilov/lessonbook/internal/bot"
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
		logger.Fatal("TELEGRAM_TOKEN is required for the bot")
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

	controller := botcontroller.NewController(
		b,
		deps.Users,
		deps.Subjects,
		deps.Teachers,
		deps.Slots,
		deps.Bookings,
		logger,
	)

	if err := controller.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register bot handlers", zap.Error(err))
	}

	logger.Info("🚀 Starting Telegram bot",
		zap.String("environment", cfg.Environment),
		zap.Int("token_length", len(cfg.TelegramToken)),
	)

	controller.Start(ctx)
	logger.Info("Bot stopped")
}
