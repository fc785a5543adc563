package model

import "time"

type TeacherMode string

const (
	ModeOnline  TeacherMode = "online"
	ModeOffline TeacherMode = "offline"
	ModeMixed   TeacherMode = "mixed"
)

// Teacher is a card attached 1:1 to a user with role 'teacher'.
// Teacher.ID equals the underlying user id.
type Teacher struct {
	ID          int64       `json:"id"`
	DefaultMode TeacherMode `json:"default_mode,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	// Filled by services, not stored on the teachers table.
	User       *User   `json:"user,omitempty"`
	SubjectIDs []int64 `json:"subject_ids"`
	UserName   string  `json:"user_name,omitempty"`
}
