package model

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	RoleGuest   UserRole = "guest"
	RoleClient  UserRole = "client"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	switch UserRole(s) {
	case RoleGuest, RoleClient, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Role       UserRole  `json:"role"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Username   string    `json:"username"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName resolves the name shown in admin lists:
// "First Last" → username → email → "user {id}".
func (u *User) DisplayName() string {
	parts := make([]string, 0, 2)
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return fmt.Sprintf("user %d", u.ID)
}
