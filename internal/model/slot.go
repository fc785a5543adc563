package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusHidden    SlotStatus = "hidden"
	SlotStatusCancelled SlotStatus = "cancelled"
)

type LessonType string

const (
	LessonIndividual LessonType = "individual"
	LessonGroup      LessonType = "group"
)

type Slot struct {
	ID           int64      `json:"id"`
	TeacherID    int64      `json:"teacher_id"`
	SubjectID    int64      `json:"subject_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	Mode         string     `json:"mode,omitempty"`
	LessonType   LessonType `json:"lesson_type"`
	Capacity     int        `json:"capacity"`
	Status       SlotStatus `json:"status"`
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	// Derived on read: capacity minus active bookings. Never stored.
	FreeSpots int `json:"free_spots"`
}

// Overlaps reports whether [s.StartTime, s.EndTime) intersects [start, end).
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// CheckCapacity validates the lesson_type ↔ capacity pairing:
// individual lessons hold exactly one spot, group lessons at least two.
func CheckCapacity(lt LessonType, capacity int) error {
	switch lt {
	case LessonIndividual:
		if capacity != 1 {
			return ErrIndividualCapacity
		}
	case LessonGroup:
		if capacity < 2 {
			return ErrGroupCapacity
		}
	default:
		return ErrUnknownLessonType
	}
	return nil
}
