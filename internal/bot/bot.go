package bot

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/service"
)

// Controller wires the Telegram bot to its command and callback handlers.
type Controller struct {
	bot      *bot.Bot
	handlers *Handlers
	logger   *zap.Logger
}

func NewController(
	botInstance *bot.Bot,
	userService *service.UserService,
	subjectService *service.SubjectService,
	teacherService *service.TeacherService,
	slotService *service.SlotService,
	bookingService *service.BookingService,
	logger *zap.Logger,
) *Controller {
	handlers := NewHandlers(
		userService,
		subjectService,
		teacherService,
		slotService,
		bookingService,
		logger,
	)

	return &Controller{
		bot:      botInstance,
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterHandlers registers all command and callback handlers.
func (c *Controller) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/subjects", bot.MatchTypeExact, c.handlers.HandleSubjects)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/slots", bot.MatchTypeExact, c.handlers.HandleSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.handlers.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myschedule", bot.MatchTypeExact, c.handlers.HandleMySchedule)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands publishes the command menu.
func (c *Controller) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "subjects", Description: "📚 Список предметов"},
		{Command: "slots", Description: "🕐 Свободные занятия"},
		{Command: "mybookings", Description: "📅 Мои записи"},
		{Command: "myschedule", Description: "🗓 Расписание на неделю"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start runs long polling until the context is cancelled.
func (c *Controller) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
