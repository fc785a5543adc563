package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/service"
)

const slotsPageSize = 10

// Handlers holds the command handlers and their service dependencies.
type Handlers struct {
	userService    *service.UserService
	subjectService *service.SubjectService
	teacherService *service.TeacherService
	slotService    *service.SlotService
	bookingService *service.BookingService
	logger         *zap.Logger
}

func NewHandlers(
	userService *service.UserService,
	subjectService *service.SubjectService,
	teacherService *service.TeacherService,
	slotService *service.SlotService,
	bookingService *service.BookingService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:    userService,
		subjectService: subjectService,
		teacherService: teacherService,
		slotService:    slotService,
		bookingService: bookingService,
		logger:         logger,
	}
}

// HandleStart registers the user and shows the welcome message.
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	from := update.Message.From

	user, err := h.userService.RegisterFromTelegram(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Произошла ошибка при регистрации. Попробуйте позже.",
		})
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот для записи на занятия к репетиторам.\n\n"+
			"Доступные команды:\n"+
			"/subjects - Список предметов\n"+
			"/slots - Свободные занятия\n"+
			"/mybookings - Мои записи\n"+
			"/myschedule - Расписание на неделю\n"+
			"/help - Справка",
		user.FirstName,
	)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   welcomeText,
	})
}

// HandleHelp shows the command reference.
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Начать работу с ботом\n" +
		"/subjects - Список всех предметов\n" +
		"/slots - Свободные занятия, на которые можно записаться\n" +
		"/mybookings - Мои записи на занятия\n" +
		"/myschedule - Картинка с расписанием на неделю\n" +
		"/help - Показать эту справку\n\n" +
		"Для записи выберите занятие в списке /slots и нажмите кнопку."

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText,
	})
}

// HandleSubjects lists all subjects.
func (h *Handlers) HandleSubjects(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	subjects, _, err := h.subjectService.List(ctx, "", 100, 0)
	if err != nil {
		h.logger.Error("Failed to list subjects", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID)
		return
	}
	if len(subjects) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "📚 Пока нет ни одного предмета.",
		})
		return
	}

	text := "📚 Предметы:\n\n"
	for _, subject := range subjects {
		text += fmt.Sprintf("• %s\n", subject.Name)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

// HandleSlots shows bookable slots with inline booking buttons.
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	filter := repository.SlotFilter{
		Status:   model.SlotStatusAvailable,
		FreeOnly: true,
		From:     time.Now(),
	}
	slots, total, err := h.slotService.List(ctx, filter, slotsPageSize, 0)
	if err != nil {
		h.logger.Error("Failed to list slots", zap.Error(err))
		h.sendError(ctx, b, chatID)
		return
	}
	if len(slots) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "😔 Сейчас нет свободных занятий. Загляните позже!",
		})
		return
	}

	subjectNames, err := h.subjectNames(ctx)
	if err != nil {
		h.logger.Error("Failed to load subject names", zap.Error(err))
		h.sendError(ctx, b, chatID)
		return
	}

	text := fmt.Sprintf("🕐 Свободные занятия (%d):\n\n", total)
	var rows [][]models.InlineKeyboardButton
	for _, slot := range slots {
		label := fmt.Sprintf("%s %s, %s",
			slot.StartTime.Format("02.01 15:04"),
			slot.EndTime.Format("15:04"),
			subjectNames[slot.SubjectID],
		)
		if slot.LessonType == model.LessonGroup {
			label += fmt.Sprintf(" (мест: %d)", slot.FreeSpots)
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         label,
			CallbackData: fmt.Sprintf("%s%d", callbackBookSlot, slot.ID),
		}})
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text + "Нажмите на занятие, чтобы записаться:",
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
}

// HandleMyBookings lists the user's bookings with cancel buttons.
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := h.userService.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to find user", zap.Error(err))
		h.sendError(ctx, b, chatID)
		return
	}
	if user == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Сначала выполните команду /start.",
		})
		return
	}

	bookings, err := h.bookingService.ListByStudent(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Error(err))
		h.sendError(ctx, b, chatID)
		return
	}

	var rows [][]models.InlineKeyboardButton
	text := "📅 Мои записи:\n\n"
	active := 0
	for _, booking := range bookings {
		if booking.Slot == nil || !booking.Status.Active() {
			continue
		}
		active++
		text += fmt.Sprintf("%s %s — %s (%s)\n",
			statusEmoji(booking.Status),
			booking.Slot.StartTime.Format("02.01 15:04"),
			booking.Slot.EndTime.Format("15:04"),
			statusText(booking.Status),
		)
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("❌ Отменить %s", booking.Slot.StartTime.Format("02.01 15:04")),
			CallbackData: fmt.Sprintf("%s%d", callbackCancelBooking, booking.ID),
		}})
	}

	if active == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📅 У вас нет активных записей. Посмотрите свободные занятия: /slots",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
}

// HandleMySchedule renders the user's week as an image.
func (h *Handlers) HandleMySchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := h.userService.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil || user == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Сначала выполните команду /start.",
		})
		return
	}

	weekStart := startOfWeek(time.Now())
	slots, err := h.weekSlots(ctx, user, weekStart)
	if err != nil {
		h.logger.Error("Failed to collect week schedule", zap.Error(err))
		h.sendError(ctx, b, chatID)
		return
	}

	if len(slots) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "🗓 На этой неделе у вас нет занятий.",
		})
		return
	}

	image, err := RenderWeek(weekStart, slots)
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Error(err))
		h.sendError(ctx, b, chatID)
		return
	}

	b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "schedule.png", Data: bytes.NewReader(image)},
		Caption: "🗓 Ваше расписание на неделю",
	})
}

// weekSlots collects what to draw: a teacher sees their own slots for the
// week, everyone else their booked lessons.
func (h *Handlers) weekSlots(ctx context.Context, user *model.User, weekStart time.Time) ([]*model.Slot, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)

	if user.Role == model.RoleTeacher {
		all, _, err := h.slotService.List(ctx, repository.SlotFilter{
			TeacherID: user.ID,
			From:      weekStart,
			To:        weekEnd,
		}, 500, 0)
		if err != nil {
			return nil, err
		}
		slots := all[:0]
		for _, slot := range all {
			if slot.Status != model.SlotStatusCancelled {
				slots = append(slots, slot)
			}
		}
		return slots, nil
	}

	bookings, err := h.bookingService.ListByStudent(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var slots []*model.Slot
	for _, booking := range bookings {
		if booking.Slot == nil || !booking.Status.Active() {
			continue
		}
		if booking.Slot.StartTime.Before(weekStart) || !booking.Slot.StartTime.Before(weekEnd) {
			continue
		}
		slots = append(slots, booking.Slot)
	}
	return slots, nil
}

func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "❌ Произошла ошибка. Попробуйте позже.",
	})
}

// subjectNames loads the id → name map for display.
func (h *Handlers) subjectNames(ctx context.Context) (map[int64]string, error) {
	subjects, _, err := h.subjectService.List(ctx, "", 500, 0)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(subjects))
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	return names, nil
}

func statusEmoji(s model.BookingStatus) string {
	switch s {
	case model.BookingStatusConfirmed:
		return "✅"
	case model.BookingStatusNew:
		return "🕐"
	}
	return "❌"
}

func statusText(s model.BookingStatus) string {
	switch s {
	case model.BookingStatusConfirmed:
		return "подтверждена"
	case model.BookingStatusNew:
		return "ожидает подтверждения"
	}
	return "отменена"
}

// startOfWeek returns Monday 00:00 of t's week in t's location.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, 1-weekday)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}
