package service

import (
	"context"
	"fmt"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/repository/base"
	"go.uber.org/zap"
)

type SubjectService struct {
	subjectRepo *repository.SubjectRepository
	logger      *zap.Logger
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, logger *zap.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		logger:      logger,
	}
}

// List returns a page of subjects plus the filtered total.
func (s *SubjectService) List(ctx context.Context, query string, limit, offset int) ([]*model.Subject, int64, error) {
	return s.subjectRepo.List(ctx, query, limit, offset)
}

// GetByID returns a subject or ErrNotFound.
func (s *SubjectService) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	subject, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: subject %d", apperr.ErrNotFound, id)
	}
	return subject, nil
}

// Create adds a subject. Name and code are unique.
func (s *SubjectService) Create(ctx context.Context, name, code string) (*model.Subject, error) {
	subject := &model.Subject{Name: name, Code: code}

	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: subject with same name or code already exists", apperr.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("Subject created", zap.Int64("subject_id", subject.ID), zap.String("name", name))

	return subject, nil
}

// Patch applies partial name/code updates.
func (s *SubjectService) Patch(ctx context.Context, id int64, name, code *string) (*model.Subject, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, fmt.Errorf("%w: subject name must not be empty", apperr.ErrInvalidArgument)
		}
		subject.Name = *name
	}
	if code != nil {
		subject.Code = *code
	}

	if err := s.subjectRepo.Update(ctx, subject); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: subject with same name or code already exists", apperr.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("Subject updated", zap.Int64("subject_id", id))

	return subject, nil
}

// Delete removes a subject. Subjects are shared reference data: deletion is
// refused while any teacher link or slot still references it, no cascade.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	teacherLinks, slots, err := s.subjectRepo.ReferenceCounts(ctx, id)
	if err != nil {
		return err
	}
	if teacherLinks > 0 || slots > 0 {
		return fmt.Errorf("%w: subject is referenced by %d teachers and %d slots, unlink first",
			apperr.ErrConflict, teacherLinks, slots)
	}

	if err := s.subjectRepo.Delete(ctx, id); err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: subject %d", apperr.ErrNotFound, id)
		}
		return err
	}

	s.logger.Info("Subject deleted", zap.Int64("subject_id", id))

	return nil
}
