package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
)

// Callback data patterns.
const (
	callbackBookSlot      = "book_slot:"      // book_slot:123
	callbackCancelBooking = "cancel_booking:" // cancel_booking:123
)

// HandleCallbackQuery routes inline button presses.
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	data := query.Data
	switch {
	case strings.HasPrefix(data, callbackBookSlot):
		h.handleBookSlot(ctx, b, query, strings.TrimPrefix(data, callbackBookSlot))
	case strings.HasPrefix(data, callbackCancelBooking):
		h.handleCancelBooking(ctx, b, query, strings.TrimPrefix(data, callbackCancelBooking))
	default:
		h.answer(ctx, b, query.ID, "")
	}
}

func (h *Handlers) handleBookSlot(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, rawID string) {
	slotID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.answer(ctx, b, query.ID, "❌ Некорректное занятие")
		return
	}

	user, err := h.userService.GetByTelegramID(ctx, query.From.ID)
	if err != nil || user == nil {
		h.answer(ctx, b, query.ID, "Сначала выполните /start")
		return
	}

	booking, err := h.bookingService.Create(ctx, slotID, user.ID)
	if err != nil {
		h.answer(ctx, b, query.ID, bookingErrorText(err))
		return
	}

	h.answer(ctx, b, query.ID, "✅ Вы записаны!")

	text := fmt.Sprintf(
		"✅ Запись создана!\n\n"+
			"🕐 %s — %s\n"+
			"Статус: %s\n\n"+
			"Мы напомним вам о занятии заранее. Посмотреть записи: /mybookings",
		booking.Slot.StartTime.Format("02.01.2006 15:04"),
		booking.Slot.EndTime.Format("15:04"),
		statusText(booking.Status),
	)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: query.From.ID,
		Text:   text,
	})
}

func (h *Handlers) handleCancelBooking(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, rawID string) {
	bookingID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.answer(ctx, b, query.ID, "❌ Некорректная запись")
		return
	}

	user, err := h.userService.GetByTelegramID(ctx, query.From.ID)
	if err != nil || user == nil {
		h.answer(ctx, b, query.ID, "Сначала выполните /start")
		return
	}

	isAdmin := user.Role == model.RoleAdmin
	if _, err := h.bookingService.CancelByStudent(ctx, bookingID, user.ID, isAdmin); err != nil {
		h.logger.Warn("Booking cancellation failed",
			zap.Int64("booking_id", bookingID),
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		h.answer(ctx, b, query.ID, bookingErrorText(err))
		return
	}

	h.answer(ctx, b, query.ID, "Запись отменена")

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: query.From.ID,
		Text:   "❌ Запись отменена. Посмотреть свободные занятия: /slots",
	})
}

func (h *Handlers) answer(ctx context.Context, b *bot.Bot, queryID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}

// bookingErrorText maps booking failures to user-facing messages.
func bookingErrorText(err error) string {
	switch {
	case errors.Is(err, apperr.ErrCapacityExceeded):
		return "😔 Все места уже заняты"
	case errors.Is(err, apperr.ErrConflict):
		return "На это занятие записаться нельзя"
	case errors.Is(err, apperr.ErrNotFound):
		return "Занятие не найдено"
	case errors.Is(err, apperr.ErrForbidden):
		return "Это не ваша запись"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return "Запись уже отменена"
	}
	return "❌ Произошла ошибка. Попробуйте позже."
}
