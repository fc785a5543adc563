package service

import (
	"context"
	"fmt"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TeacherService struct {
	pool        *pgxpool.Pool
	userRepo    *repository.UserRepository
	teacherRepo *repository.TeacherRepository
	subjectRepo *repository.SubjectRepository
	slotRepo    *repository.SlotRepository
	bookingRepo *repository.BookingRepository
	logger      *zap.Logger
}

func NewTeacherService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	teacherRepo *repository.TeacherRepository,
	subjectRepo *repository.SubjectRepository,
	slotRepo *repository.SlotRepository,
	bookingRepo *repository.BookingRepository,
	logger *zap.Logger,
) *TeacherService {
	return &TeacherService{
		pool:        pool,
		userRepo:    userRepo,
		teacherRepo: teacherRepo,
		subjectRepo: subjectRepo,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// List returns teacher cards with user data and subject ids attached.
func (s *TeacherService) List(ctx context.Context, filter repository.TeacherFilter, limit, offset int) ([]*model.Teacher, int64, error) {
	teachers, total, err := s.teacherRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.ID)
	}
	subjects, err := s.teacherRepo.SubjectIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range teachers {
		if linked, ok := subjects[t.ID]; ok {
			t.SubjectIDs = linked
		}
	}

	return teachers, total, nil
}

// GetByID returns one teacher card or ErrNotFound.
func (s *TeacherService) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	teacher, err := s.teacherRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, fmt.Errorf("%w: teacher %d", apperr.ErrNotFound, id)
	}

	subjects, err := s.teacherRepo.SubjectIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if linked, ok := subjects[id]; ok {
		teacher.SubjectIDs = linked
	}

	return teacher, nil
}

func (s *TeacherService) checkSubjectIDs(ctx context.Context, subjectIDs []int64) error {
	found, err := s.subjectRepo.ExistingIDs(ctx, subjectIDs)
	if err != nil {
		return err
	}
	for _, id := range subjectIDs {
		if !found[id] {
			return fmt.Errorf("%w: subject %d", apperr.ErrNotFound, id)
		}
	}
	return nil
}

// Create attaches a teacher card to an existing user, links subjects and
// raises the user role to teacher, all in one transaction.
func (s *TeacherService) Create(ctx context.Context, userID int64, defaultMode model.TeacherMode, bio string, subjectIDs []int64) (*model.Teacher, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
	}

	exists, err := s.teacherRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: teacher already exists for user %d", apperr.ErrConflict, userID)
	}

	if err := s.checkSubjectIDs(ctx, subjectIDs); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	teacher := &model.Teacher{
		ID:          userID,
		DefaultMode: defaultMode,
		Bio:         bio,
	}
	if err := s.teacherRepo.Create(ctx, tx, teacher); err != nil {
		return nil, err
	}

	if err := s.teacherRepo.SetSubjects(ctx, tx, userID, subjectIDs); err != nil {
		return nil, err
	}

	if user.Role != model.RoleTeacher {
		if _, err := tx.Exec(ctx, `UPDATE users SET role = 'teacher' WHERE id = $1`, userID); err != nil {
			return nil, fmt.Errorf("raise user role: %w", err)
		}
		user.Role = model.RoleTeacher
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Teacher created",
		zap.Int64("teacher_id", userID),
		zap.Int("subjects", len(subjectIDs)),
	)

	teacher.User = user
	teacher.UserName = user.DisplayName()
	teacher.SubjectIDs = append([]int64{}, subjectIDs...)

	return teacher, nil
}

// TeacherPatch carries the optional fields of a teacher update.
type TeacherPatch struct {
	DefaultMode *string
	Bio         *string
	SubjectIDs  []int64 // nil keeps the current set
}

// Patch applies partial card updates; a non-nil SubjectIDs replaces the set.
func (s *TeacherService) Patch(ctx context.Context, id int64, patch TeacherPatch) (*model.Teacher, error) {
	teacher, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.DefaultMode != nil {
		teacher.DefaultMode = model.TeacherMode(*patch.DefaultMode)
	}
	if patch.Bio != nil {
		teacher.Bio = *patch.Bio
	}

	if err := s.teacherRepo.Update(ctx, teacher); err != nil {
		return nil, err
	}

	if patch.SubjectIDs != nil {
		if err := s.checkSubjectIDs(ctx, patch.SubjectIDs); err != nil {
			return nil, err
		}
		if err := s.teacherRepo.SetSubjects(ctx, s.pool, id, patch.SubjectIDs); err != nil {
			return nil, err
		}
		teacher.SubjectIDs = append([]int64{}, patch.SubjectIDs...)
	}

	s.logger.Info("Teacher updated", zap.Int64("teacher_id", id))

	return teacher, nil
}

// SetSubjects replaces the teacher's subject set.
func (s *TeacherService) SetSubjects(ctx context.Context, id int64, subjectIDs []int64) error {
	exists, err := s.teacherRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: teacher %d", apperr.ErrNotFound, id)
	}

	if err := s.checkSubjectIDs(ctx, subjectIDs); err != nil {
		return err
	}

	if err := s.teacherRepo.SetSubjects(ctx, s.pool, id, subjectIDs); err != nil {
		return err
	}

	s.logger.Info("Teacher subjects replaced",
		zap.Int64("teacher_id", id),
		zap.Int("subjects", len(subjectIDs)),
	)

	return nil
}

// Delete removes a teacher and cascades: every booking on the teacher's
// slots is cancelled, the slots are deleted, subject links go with the card.
// The subject records themselves stay — they are shared reference data.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	exists, err := s.teacherRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: teacher %d", apperr.ErrNotFound, id)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slotIDs, err := s.slotRepo.IDsByTeacher(ctx, tx, id)
	if err != nil {
		return err
	}
	var cancelled int64
	for _, slotID := range slotIDs {
		n, err := s.bookingRepo.CancelForSlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		cancelled += n
	}

	// Cancelled bookings still reference their slots; the FK cascade on
	// bookings.slot_id cleans them up with the slot rows.
	if err := s.slotRepo.DeleteByTeacher(ctx, tx, id); err != nil {
		return err
	}

	if err := s.teacherRepo.Delete(ctx, tx, id); err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: teacher %d", apperr.ErrNotFound, id)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Teacher deleted",
		zap.Int64("teacher_id", id),
		zap.Int("slots_removed", len(slotIDs)),
		zap.Int64("bookings_cancelled", cancelled),
	)

	return nil
}
