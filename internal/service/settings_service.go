package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"go.uber.org/zap"
)

// SettingsService is the validated configuration store: registered keys are
// typed, unknown keys are preserved untouched. Reads hit the database every
// time so an admin edit is visible to the very next generation run.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	logger       *zap.Logger
}

func NewSettingsService(settingsRepo *repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

// GetAll returns the full settings map.
func (s *SettingsService) GetAll(ctx context.Context) (map[string]string, error) {
	return s.settingsRepo.GetAll(ctx)
}

// Update validates and stores every pair in values.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := model.ValidateSetting(key, value); err != nil {
			return err
		}
	}

	for key, value := range values {
		if err := s.settingsRepo.Set(ctx, key, value); err != nil {
			return err
		}
		s.logger.Info("Setting updated", zap.String("key", key), zap.String("value", value))
	}

	return nil
}

// SlotDuration returns the configured slot length.
func (s *SettingsService) SlotDuration(ctx context.Context) (time.Duration, error) {
	value, err := s.settingsRepo.Get(ctx, model.SettingSlotDuration)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("setting %s is corrupt: %q", model.SettingSlotDuration, value)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// ReminderLead returns how long before a lesson reminders go out.
func (s *SettingsService) ReminderLead(ctx context.Context) (time.Duration, error) {
	value, err := s.settingsRepo.Get(ctx, model.SettingReminderBefore)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("setting %s is corrupt: %q", model.SettingReminderBefore, value)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// Breaks returns the configured break windows.
func (s *SettingsService) Breaks(ctx context.Context) ([]model.BreakInterval, error) {
	value, err := s.settingsRepo.Get(ctx, model.SettingBreaks)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	return model.ParseBreaks(value)
}
