package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/config"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/service"
)

// Dependencies is the shared wiring used by every binary: the pool, the
// repositories and the services on top of them.
type Dependencies struct {
	Pool *pgxpool.Pool

	UserRepo     *repository.UserRepository
	SubjectRepo  *repository.SubjectRepository
	TeacherRepo  *repository.TeacherRepository
	SlotRepo     *repository.SlotRepository
	BookingRepo  *repository.BookingRepository
	SettingsRepo *repository.SettingsRepository

	Users    *service.UserService
	Subjects *service.SubjectService
	Teachers *service.TeacherService
	Slots    *service.SlotService
	Bookings *service.BookingService
	Settings *service.SettingsService
	Reports  *service.ReportService
}

// Build connects to Postgres, applies migrations and assembles the service
// graph. The caller owns the returned pool and must Close it.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("✅ Connected to database")

	migrator, err := NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	d := &Dependencies{
		Pool:         pool,
		UserRepo:     repository.NewUserRepository(pool),
		SubjectRepo:  repository.NewSubjectRepository(pool),
		TeacherRepo:  repository.NewTeacherRepository(pool),
		SlotRepo:     repository.NewSlotRepository(pool),
		BookingRepo:  repository.NewBookingRepository(pool),
		SettingsRepo: repository.NewSettingsRepository(pool),
	}

	d.Settings = service.NewSettingsService(d.SettingsRepo, logger)
	d.Users = service.NewUserService(pool, d.UserRepo, d.TeacherRepo, d.BookingRepo, logger)
	d.Subjects = service.NewSubjectService(d.SubjectRepo, logger)
	d.Teachers = service.NewTeacherService(pool, d.UserRepo, d.TeacherRepo, d.SubjectRepo, d.SlotRepo, d.BookingRepo, logger)
	d.Slots = service.NewSlotService(pool, d.TeacherRepo, d.SubjectRepo, d.SlotRepo, d.BookingRepo, d.Settings, logger)
	d.Bookings = service.NewBookingService(pool, d.BookingRepo, d.SlotRepo, d.UserRepo, logger)
	d.Reports = service.NewReportService(d.BookingRepo, logger)

	return d, nil
}

// Close releases the pool.
func (d *Dependencies) Close() {
	d.Pool.Close()
}
