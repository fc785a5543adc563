package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BookingService struct {
	pool        *pgxpool.Pool
	bookingRepo *repository.BookingRepository
	slotRepo    *repository.SlotRepository
	userRepo    *repository.UserRepository
	logger      *zap.Logger
}

func NewBookingService(
	pool *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	slotRepo *repository.SlotRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		pool:        pool,
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// Create books a spot on a slot for a student. The slot row is locked for
// the whole check-then-insert sequence, so two requests racing for the last
// spot serialize and exactly one succeeds.
func (s *BookingService) Create(ctx context.Context, slotID, studentID int64) (*model.Booking, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, studentID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slot, err := s.slotRepo.GetForUpdate(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", apperr.ErrNotFound, slotID)
	}

	if slot.Status != model.SlotStatusAvailable {
		return nil, fmt.Errorf("%w: slot %d is %s", apperr.ErrConflict, slotID, slot.Status)
	}
	if !slot.StartTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: slot %d has already started", apperr.ErrInvalidArgument, slotID)
	}

	duplicate, err := s.bookingRepo.HasActiveForStudent(ctx, tx, slotID, studentID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, fmt.Errorf("%w: student %d already holds a booking on slot %d", apperr.ErrConflict, studentID, slotID)
	}

	active, err := s.bookingRepo.CountActiveForSlot(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if active >= int64(slot.Capacity) {
		return nil, fmt.Errorf("%w: slot %d is full", apperr.ErrCapacityExceeded, slotID)
	}

	booking := &model.Booking{
		SlotID:    slotID,
		StudentID: studentID,
		Status:    model.BookingStatusNew,
	}
	if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("slot_id", slotID),
		zap.Int64("student_id", studentID),
	)

	slot.FreeSpots = freeSpotsAfter(slot.Capacity, active)
	booking.Slot = slot
	booking.Student = student

	return booking, nil
}

// freeSpotsAfter derives a slot's free_spots once the new booking joins the
// active ones. GetForUpdate reads the bare row, so the field has to be
// filled in before the slot is attached to the response.
func freeSpotsAfter(capacity int, active int64) int {
	return capacity - int(active) - 1
}

// GetByID returns a booking or ErrNotFound.
func (s *BookingService) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", apperr.ErrNotFound, id)
	}
	return booking, nil
}

// UpdateStatus moves a booking along the status machine. Invalid moves,
// including anything out of cancelled, are rejected. A same-status update is
// an idempotent no-op. The write itself is a guarded compare-and-set on the
// status read here, so a concurrent writer cannot sneak a booking out of
// cancelled between the check and the update.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) (*model.Booking, error) {
	if !model.ValidBookingStatus(string(status)) {
		return nil, fmt.Errorf("%w: unknown booking status %q", apperr.ErrInvalidArgument, status)
	}

	for {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		move, err := planStatusMove(id, booking, status)
		if err != nil {
			return nil, err
		}
		if !move {
			return booking, nil
		}

		moved, err := s.bookingRepo.UpdateStatus(ctx, s.pool, id, booking.Status, status)
		if err != nil {
			return nil, err
		}
		if !moved {
			// Another writer moved the row between the read and the
			// write. Re-read and re-validate; the machine is acyclic,
			// so this terminates.
			continue
		}

		s.logger.Info("Booking status changed",
			zap.Int64("booking_id", id),
			zap.String("from", string(booking.Status)),
			zap.String("to", string(status)),
		)

		booking.Status = status

		return booking, nil
	}
}

// planStatusMove validates one observed booking state against the requested
// target. It returns (true, nil) when a guarded write should be attempted,
// (false, nil) for an idempotent same-status no-op, and an error when the
// row is missing or the machine forbids the move.
func planStatusMove(id int64, current *model.Booking, target model.BookingStatus) (bool, error) {
	if current == nil {
		return false, fmt.Errorf("%w: booking %d", apperr.ErrNotFound, id)
	}
	if current.Status == target {
		return false, nil
	}
	if !model.CanTransition(current.Status, target) {
		return false, fmt.Errorf("%w: booking %d cannot move %s -> %s",
			apperr.ErrInvalidTransition, id, current.Status, target)
	}
	return true, nil
}

// CancelByStudent cancels the student's own booking. Admins may cancel any
// booking; everyone else only their own.
func (s *BookingService) CancelByStudent(ctx context.Context, bookingID, studentID int64, isAdmin bool) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", apperr.ErrNotFound, bookingID)
	}
	if !isAdmin && booking.StudentID != studentID {
		return nil, fmt.Errorf("%w: booking %d belongs to another student", apperr.ErrForbidden, bookingID)
	}

	return s.UpdateStatus(ctx, bookingID, model.BookingStatusCancelled)
}

// List returns a page of denormalized booking rows plus the filtered total.
func (s *BookingService) List(ctx context.Context, filter repository.BookingFilter, limit, offset int) ([]*model.BookingRow, int64, error) {
	return s.bookingRepo.List(ctx, filter, limit, offset)
}

// ListAll returns every matching row in chronological order, for exports.
func (s *BookingService) ListAll(ctx context.Context, filter repository.BookingFilter) ([]*model.BookingRow, error) {
	return s.bookingRepo.ListAll(ctx, filter)
}

// ListByStudent returns the student's bookings with their slots attached,
// newest first.
func (s *BookingService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	return s.bookingRepo.ListByStudent(ctx, studentID)
}

// Delete hard-removes a booking row. Administrative escape hatch; normal
// flows cancel instead.
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Booking deleted", zap.Int64("booking_id", id))

	return nil
}
