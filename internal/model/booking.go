package model

import "time"

type BookingStatus string

const (
	BookingStatusNew       BookingStatus = "new"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ValidBookingStatus reports whether s names a known booking status.
func ValidBookingStatus(s string) bool {
	switch BookingStatus(s) {
	case BookingStatusNew, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition validates the booking status machine:
// new → confirmed, new → cancelled, confirmed → cancelled.
// cancelled is terminal; nothing re-enters new. A same-status write is not
// a transition: the table reports it false, and callers short-circuit it as
// an idempotent no-op before consulting the table.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingStatusNew:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCancelled
	}
	return false
}

// Active reports whether the status occupies a spot on its slot.
func (s BookingStatus) Active() bool {
	return s == BookingStatusNew || s == BookingStatusConfirmed
}

type Booking struct {
	ID         int64         `json:"id"`
	SlotID     int64         `json:"slot_id"`
	StudentID  int64         `json:"student_id"`
	Status     BookingStatus `json:"status"`
	RemindedAt *time.Time    `json:"reminded_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	// Filled by services for notifications and list rows.
	Slot    *Slot `json:"slot,omitempty"`
	Student *User `json:"student,omitempty"`
}

// BookingRow is a denormalized listing row for admin tables and exports.
type BookingRow struct {
	ID        int64         `json:"id"`
	Status    BookingStatus `json:"status"`
	SlotID    int64         `json:"slot_id"`
	StudentID int64         `json:"student_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	TeacherID int64         `json:"teacher_id"`
	SubjectID int64         `json:"subject_id"`
}
