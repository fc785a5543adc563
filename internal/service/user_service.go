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

type UserService struct {
	pool        *pgxpool.Pool
	userRepo    *repository.UserRepository
	teacherRepo *repository.TeacherRepository
	bookingRepo *repository.BookingRepository
	logger      *zap.Logger
}

func NewUserService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	teacherRepo *repository.TeacherRepository,
	bookingRepo *repository.BookingRepository,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		pool:        pool,
		userRepo:    userRepo,
		teacherRepo: teacherRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// RegisterFromTelegram creates or refreshes a user from bot contact.
// First contact registers a client; repeated contact updates profile fields.
func (s *UserService) RegisterFromTelegram(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	existing, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existing != nil {
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName

		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		return existing, nil
	}

	user := &model.User{
		TelegramID: telegramID,
		Role:       model.RoleClient,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with this telegram_id already exists", apperr.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
	)

	return user, nil
}

// GetByID returns the user or an ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	return user, nil
}

// GetByTelegramID returns the user or nil (callers decide whether absence
// is an error — the bot registers on first contact).
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// List returns a page of users plus the filtered total.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter, limit, offset int) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, filter, limit, offset)
}

// Create adds a user from the admin panel.
func (s *UserService) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user.Role == "" {
		user.Role = model.RoleClient
	}
	if !model.ValidRole(string(user.Role)) {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidArgument, user.Role)
	}
	user.IsVerified = user.Role != model.RoleGuest

	if err := s.userRepo.Create(ctx, user); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with this telegram_id already exists", apperr.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))

	return user, nil
}

// UserPatch carries the optional fields of a user update.
type UserPatch struct {
	Role      *string
	FirstName *string
	LastName  *string
	Username  *string
	Phone     *string
	Email     *string
}

// Patch applies partial updates. Raising the role to teacher auto-creates an
// empty teacher card, mirroring the admin panel flow.
func (s *UserService) Patch(ctx context.Context, id int64, patch UserPatch) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Role != nil {
		if !model.ValidRole(*patch.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidArgument, *patch.Role)
		}
		user.Role = model.UserRole(*patch.Role)
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}

	if user.Role == model.RoleTeacher {
		hasCard, err := s.teacherRepo.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !hasCard {
			teacher := &model.Teacher{ID: id}
			if err := s.teacherRepo.Create(ctx, s.pool, teacher); err != nil {
				return nil, err
			}
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.Int64("user_id", id))

	return user, nil
}

// Delete removes a user. Refuses while a teacher card exists (unless force,
// which cascades through teacher deletion) or active bookings remain.
func (s *UserService) Delete(ctx context.Context, id int64, force bool, teacherService *TeacherService) error {
	hasCard, err := s.teacherRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if hasCard {
		if !force {
			return fmt.Errorf("%w: user is a teacher, delete the teacher first or pass force", apperr.ErrConflict)
		}
		if err := teacherService.Delete(ctx, id); err != nil {
			return err
		}
	}

	active, err := s.bookingRepo.CountActiveForStudent(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: user has %d active bookings", apperr.ErrConflict, active)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
		}
		return err
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))

	return nil
}
