package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/repository/base"
	"github.com/avoroshilov/lessonbook/internal/timegrid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SlotService struct {
	pool        *pgxpool.Pool
	teacherRepo *repository.TeacherRepository
	subjectRepo *repository.SubjectRepository
	slotRepo    *repository.SlotRepository
	bookingRepo *repository.BookingRepository
	settings    *SettingsService
	logger      *zap.Logger
}

func NewSlotService(
	pool *pgxpool.Pool,
	teacherRepo *repository.TeacherRepository,
	subjectRepo *repository.SubjectRepository,
	slotRepo *repository.SlotRepository,
	bookingRepo *repository.BookingRepository,
	settings *SettingsService,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		pool:        pool,
		teacherRepo: teacherRepo,
		subjectRepo: subjectRepo,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		settings:    settings,
		logger:      logger,
	}
}

// GenerateRequest describes one slot generation run over a raw
// availability window.
type GenerateRequest struct {
	TeacherID     int64
	SubjectID     int64
	WindowStart   time.Time
	WindowEnd     time.Time
	LessonType    model.LessonType
	Mode          string // empty falls back to the teacher's default mode
	Capacity      int
	SkipConflicts bool
}

// GenerateResult reports what one run created and what it left alone.
type GenerateResult struct {
	GenerationID uuid.UUID         `json:"generation_id"`
	Created      []*model.Slot     `json:"created"`
	Skipped      []SkippedInterval `json:"skipped"`
	Requested    int               `json:"total_requested"`
}

// SkippedInterval is a candidate interval the run did not turn into a slot.
type SkippedInterval struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Generate slices the window into slots per current settings and inserts
// them. Settings are re-read on every run — an admin edit applies to the
// next generation immediately. The teacher row is locked for the duration
// of the transaction, so concurrent runs for one teacher serialize.
//
// Per candidate slot: an identical existing (teacher, start, end) triple is
// skipped silently (re-running an unchanged window creates no duplicates);
// any other overlap with a non-cancelled slot is skipped when SkipConflicts
// is set and fails the whole run with a conflict otherwise.
func (s *SlotService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Capacity == 0 {
		req.Capacity = 1
	}
	if req.LessonType == "" {
		req.LessonType = model.LessonIndividual
	}
	if err := model.CheckCapacity(req.LessonType, req.Capacity); err != nil {
		return nil, err
	}

	teacher, err := s.teacherRepo.GetByID(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, fmt.Errorf("%w: teacher %d", apperr.ErrNotFound, req.TeacherID)
	}

	subject, err := s.subjectRepo.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: subject %d", apperr.ErrNotFound, req.SubjectID)
	}

	mode := req.Mode
	if mode == "" {
		mode = string(teacher.DefaultMode)
	}

	duration, err := s.settings.SlotDuration(ctx)
	if err != nil {
		return nil, err
	}
	breaks, err := s.settings.Breaks(ctx)
	if err != nil {
		return nil, err
	}

	window := timegrid.Range{Start: req.WindowStart, End: req.WindowEnd}
	candidates, err := timegrid.Plan(window, breaks, duration)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no slots fit into the window with duration %s", apperr.ErrInvalidArgument, duration)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent generation runs for the same teacher.
	locked, err := s.teacherRepo.LockForGeneration(ctx, tx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("%w: teacher %d", apperr.ErrNotFound, req.TeacherID)
	}

	generationID := uuid.New()
	result := &GenerateResult{
		GenerationID: generationID,
		Requested:    len(candidates),
	}

	for _, c := range candidates {
		exact, err := s.slotRepo.ExistsExact(ctx, tx, req.TeacherID, c.Start, c.End)
		if err != nil {
			return nil, err
		}
		if exact {
			result.Skipped = append(result.Skipped, SkippedInterval{StartTime: c.Start, EndTime: c.End})
			continue
		}

		overlap, err := s.slotRepo.HasOverlap(ctx, tx, req.TeacherID, c.Start, c.End)
		if err != nil {
			return nil, err
		}
		if overlap {
			if req.SkipConflicts {
				result.Skipped = append(result.Skipped, SkippedInterval{StartTime: c.Start, EndTime: c.End})
				continue
			}
			return nil, fmt.Errorf("%w: interval %s-%s overlaps an existing slot",
				apperr.ErrConflict, c.Start.Format("15:04"), c.End.Format("15:04"))
		}

		slot := &model.Slot{
			TeacherID:    req.TeacherID,
			SubjectID:    req.SubjectID,
			StartTime:    c.Start,
			EndTime:      c.End,
			Mode:         mode,
			LessonType:   req.LessonType,
			Capacity:     req.Capacity,
			Status:       model.SlotStatusAvailable,
			GenerationID: &generationID,
		}
		if err := s.slotRepo.Create(ctx, tx, slot); err != nil {
			return nil, err
		}
		slot.FreeSpots = slot.Capacity
		result.Created = append(result.Created, slot)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Slots generated",
		zap.Int64("teacher_id", req.TeacherID),
		zap.String("generation_id", generationID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}

// List returns a page of slots with derived free spots.
func (s *SlotService) List(ctx context.Context, filter repository.SlotFilter, limit, offset int) ([]*model.Slot, int64, error) {
	return s.slotRepo.List(ctx, filter, limit, offset)
}

// GetByID returns a slot or ErrNotFound.
func (s *SlotService) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", apperr.ErrNotFound, id)
	}
	return slot, nil
}

// SlotPatch carries the optional fields of a slot update.
type SlotPatch struct {
	Status     *string
	Capacity   *int
	LessonType *string
	Mode       *string
}

// Patch applies administrative slot updates. Capacity never drops below the
// current active booking count; cancelling a slot cascade-cancels its
// bookings and is terminal.
func (s *SlotService) Patch(ctx context.Context, id int64, patch SlotPatch) (*model.Slot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slot, err := s.slotRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", apperr.ErrNotFound, id)
	}
	if slot.Status == model.SlotStatusCancelled {
		return nil, fmt.Errorf("%w: slot %d is cancelled", apperr.ErrConflict, id)
	}

	used, err := s.bookingRepo.CountActiveForSlot(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if patch.LessonType != nil {
		slot.LessonType = model.LessonType(*patch.LessonType)
	}
	if patch.Capacity != nil {
		if int64(*patch.Capacity) < used {
			return nil, fmt.Errorf("%w: capacity %d below %d active bookings", apperr.ErrConflict, *patch.Capacity, used)
		}
		slot.Capacity = *patch.Capacity
	}
	if err := model.CheckCapacity(slot.LessonType, slot.Capacity); err != nil {
		return nil, err
	}
	if patch.Mode != nil {
		slot.Mode = *patch.Mode
	}

	var cancelled int64
	if patch.Status != nil {
		next := model.SlotStatus(*patch.Status)
		switch next {
		case model.SlotStatusAvailable, model.SlotStatusHidden, model.SlotStatusCancelled:
		default:
			return nil, fmt.Errorf("%w: unknown slot status %q", apperr.ErrInvalidArgument, *patch.Status)
		}
		slot.Status = next
		if next == model.SlotStatusCancelled {
			cancelled, err = s.bookingRepo.CancelForSlot(ctx, tx, id)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := s.slotRepo.Update(ctx, tx, slot); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if cancelled > 0 {
		s.logger.Info("Slot cancelled",
			zap.Int64("slot_id", id),
			zap.Int64("bookings_cancelled", cancelled),
		)
	}

	if slot.Status == model.SlotStatusCancelled {
		slot.FreeSpots = 0
	} else {
		slot.FreeSpots = slot.Capacity - int(used)
	}

	return slot, nil
}

// Delete removes a slot. Refused while active bookings exist — cancel the
// slot instead to cascade.
func (s *SlotService) Delete(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slot, err := s.slotRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if slot == nil {
		return fmt.Errorf("%w: slot %d", apperr.ErrNotFound, id)
	}

	active, err := s.bookingRepo.CountActiveForSlot(ctx, tx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: slot has %d active bookings", apperr.ErrConflict, active)
	}

	if err := s.slotRepo.Delete(ctx, tx, id); err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: slot %d", apperr.ErrNotFound, id)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Slot deleted", zap.Int64("slot_id", id))

	return nil
}
