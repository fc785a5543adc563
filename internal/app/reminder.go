package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/service"
)

const reminderInterval = time.Minute

// ReminderScheduler periodically finds confirmed bookings about to start and
// notifies the students over Telegram. Each booking is reminded once.
type ReminderScheduler struct {
	bookingRepo *repository.BookingRepository
	settings    *service.SettingsService
	bot         *bot.Bot
	logger      *zap.Logger
	stopChan    chan struct{}
}

func NewReminderScheduler(
	bookingRepo *repository.BookingRepository,
	settings *service.SettingsService,
	botInstance *bot.Bot,
	logger *zap.Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		bookingRepo: bookingRepo,
		settings:    settings,
		bot:         botInstance,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the reminder loop.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting reminder scheduler")

	go s.run(ctx)
}

// Stop stops the reminder loop.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler")
	close(s.stopChan)
}

func (s *ReminderScheduler) run(ctx context.Context) {
	s.sendDueReminders(ctx)

	ticker := time.NewTicker(reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sendDueReminders(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder task cancelled")
			return
		}
	}
}

// sendDueReminders runs one cycle. The lead time is re-read from settings
// every cycle, so an admin change applies without a restart.
func (s *ReminderScheduler) sendDueReminders(ctx context.Context) {
	lead, err := s.settings.ReminderLead(ctx)
	if err != nil {
		s.logger.Error("Failed to read reminder lead time", zap.Error(err))
		return
	}

	reminders, err := s.bookingRepo.DueReminders(ctx, lead)
	if err != nil {
		s.logger.Error("Failed to find due reminders", zap.Error(err))
		return
	}
	if len(reminders) == 0 {
		return
	}

	for _, reminder := range reminders {
		if err := s.notify(ctx, reminder); err != nil {
			s.logger.Error("Failed to send reminder",
				zap.Int64("booking_id", reminder.BookingID),
				zap.Error(err),
			)
			continue
		}
		if err := s.bookingRepo.MarkReminded(ctx, reminder.BookingID); err != nil {
			s.logger.Error("Failed to mark booking reminded",
				zap.Int64("booking_id", reminder.BookingID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Reminder cycle completed", zap.Int("sent", len(reminders)))
}

func (s *ReminderScheduler) notify(ctx context.Context, reminder *repository.Reminder) error {
	minutes := int(time.Until(reminder.StartTime).Minutes())
	text := fmt.Sprintf(
		"⏰ %s, напоминаем: занятие по предмету «%s» начнётся в %s (через %d мин).",
		reminder.StudentFirstName,
		reminder.SubjectName,
		reminder.StartTime.Format("15:04"),
		minutes,
	)

	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: reminder.StudentTelegram,
		Text:   text,
	})
	return err
}
