package bot

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
)

func TestStartOfWeek(t *testing.T) {
	// Thursday 2026-03-05.
	thursday := time.Date(2026, 3, 5, 17, 30, 0, 0, time.UTC)
	monday := startOfWeek(thursday)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), monday)
	assert.Equal(t, time.Monday, monday.Weekday())

	// Sunday maps to the same week's Monday, not the next one.
	sunday := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, startOfWeek(sunday))

	// Monday is its own week start.
	assert.Equal(t, monday, startOfWeek(monday.Add(5*time.Minute)))
}

func TestHourBounds(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots := []*model.Slot{
		{StartTime: base.Add(10 * time.Hour), EndTime: base.Add(11 * time.Hour)},
		{StartTime: base.Add(6 * time.Hour), EndTime: base.Add(7 * time.Hour)},
	}
	minHour, maxHour := hourBounds(slots)
	assert.Equal(t, 5, minHour, "one hour of padding below the earliest slot")
	assert.Equal(t, 22, maxHour)

	minHour, maxHour = hourBounds(nil)
	assert.Equal(t, defaultMinHour-1, minHour)
	assert.Equal(t, defaultMaxHour+1, maxHour)
}

func TestRenderWeekProducesPNG(t *testing.T) {
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots := []*model.Slot{
		{
			StartTime:  weekStart.Add(10 * time.Hour),
			EndTime:    weekStart.Add(11 * time.Hour),
			LessonType: model.LessonIndividual,
		},
		{
			StartTime:  weekStart.AddDate(0, 0, 3).Add(15 * time.Hour),
			EndTime:    weekStart.AddDate(0, 0, 3).Add(16*time.Hour + 30*time.Minute),
			LessonType: model.LessonGroup,
		},
	}

	image, err := RenderWeek(weekStart, slots)
	require.NoError(t, err)
	require.NotEmpty(t, image)
	assert.True(t, bytes.HasPrefix(image, []byte("\x89PNG")), "output must be a PNG")
}

func TestBookingErrorText(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: full", apperr.ErrCapacityExceeded), "😔 Все места уже заняты"},
		{fmt.Errorf("%w: hidden", apperr.ErrConflict), "На это занятие записаться нельзя"},
		{fmt.Errorf("%w: gone", apperr.ErrNotFound), "Занятие не найдено"},
		{fmt.Errorf("%w: someone else", apperr.ErrForbidden), "Это не ваша запись"},
		{fmt.Errorf("%w: already cancelled", apperr.ErrInvalidTransition), "Запись уже отменена"},
		{fmt.Errorf("boom"), "❌ Произошла ошибка. Попробуйте позже."},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, bookingErrorText(tc.err))
	}
}
