package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/avoroshilov/lessonbook/internal/apperr"
)

// Setting keys with typed validation. Unknown keys are stored and returned
// untouched so the admin panel can grow keys without a migration.
const (
	SettingSlotDuration   = "slot_duration_min"
	SettingReminderBefore = "reminder_minutes_before"
	SettingBreaks         = "breaks"
)

// BreakInterval is a wall-clock exclusion window in minutes from midnight,
// [StartMin, EndMin), subtracted from availability during slot generation.
type BreakInterval struct {
	StartMin int `json:"start_min"`
	EndMin   int `json:"end_min"`
}

const minutesPerDay = 24 * 60

// ValidateSetting checks the value for a registered key. Values for
// unregistered keys pass through untouched.
func ValidateSetting(key, value string) error {
	switch key {
	case SettingSlotDuration:
		n, err := strconv.Atoi(value)
		if err != nil || n < 5 {
			return fmt.Errorf("%w: %s must be an integer >= 5", apperr.ErrInvalidArgument, key)
		}
	case SettingReminderBefore:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", apperr.ErrInvalidArgument, key)
		}
	case SettingBreaks:
		breaks, err := ParseBreaks(value)
		if err != nil {
			return err
		}
		return ValidateBreaks(breaks)
	}
	return nil
}

// ParseBreaks decodes the JSON value of the 'breaks' setting.
func ParseBreaks(value string) ([]BreakInterval, error) {
	var breaks []BreakInterval
	if err := json.Unmarshal([]byte(value), &breaks); err != nil {
		return nil, fmt.Errorf("%w: breaks must be a JSON array of {start_min,end_min}", apperr.ErrInvalidArgument)
	}
	return breaks, nil
}

// ValidateBreaks rejects malformed or mutually overlapping break windows.
// Overlapping configured breaks are a configuration error, not something to
// merge silently.
func ValidateBreaks(breaks []BreakInterval) error {
	for _, b := range breaks {
		if b.StartMin < 0 || b.EndMin > minutesPerDay || b.StartMin >= b.EndMin {
			return fmt.Errorf("%w: break %d-%d is not a valid minute-of-day window", apperr.ErrInvalidArgument, b.StartMin, b.EndMin)
		}
	}
	sorted := make([]BreakInterval, len(breaks))
	copy(sorted, breaks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMin < sorted[j].StartMin })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartMin < sorted[i-1].EndMin {
			return fmt.Errorf("%w: breaks %d-%d and %d-%d overlap",
				apperr.ErrConflict,
				sorted[i-1].StartMin, sorted[i-1].EndMin,
				sorted[i].StartMin, sorted[i].EndMin)
		}
	}
	return nil
}
