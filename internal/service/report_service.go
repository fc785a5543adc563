package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"go.uber.org/zap"
)

type ReportService struct {
	bookingRepo *repository.BookingRepository
	logger      *zap.Logger
}

func NewReportService(bookingRepo *repository.BookingRepository, logger *zap.Logger) *ReportService {
	return &ReportService{bookingRepo: bookingRepo, logger: logger}
}

// TeacherLoadItem is one report line: a teacher's confirmed lessons and
// hours over the requested period.
type TeacherLoadItem struct {
	TeacherID    int64   `json:"teacher_id"`
	TeacherName  string  `json:"teacher_name"`
	Confirmed    int64   `json:"confirmed_bookings"`
	TotalMinutes int64   `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
}

// TeacherLoad builds the per-teacher workload report for [from, to).
func (s *ReportService) TeacherLoad(ctx context.Context, from, to time.Time) ([]*TeacherLoadItem, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: report period end must be after start", apperr.ErrInvalidArgument)
	}

	rows, err := s.bookingRepo.TeacherLoad(ctx, from, to)
	if err != nil {
		return nil, err
	}

	items := make([]*TeacherLoadItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, &TeacherLoadItem{
			TeacherID:    row.TeacherID,
			TeacherName:  row.TeacherName,
			Confirmed:    row.Confirmed,
			TotalMinutes: row.TotalMinutes,
			TotalHours:   float64(row.TotalMinutes) / 60,
		})
	}

	s.logger.Debug("Teacher load report built",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("teachers", len(items)),
	)

	return items, nil
}
