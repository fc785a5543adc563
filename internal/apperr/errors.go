// Package apperr defines the error taxonomy shared by services and the
// HTTP layer. Every business-rule violation is one of these sentinels,
// wrapped with context via fmt.Errorf("...: %w", err); transport code maps
// each sentinel to a fixed status code and never retries.
package apperr

import "errors"

var (
	// ErrNotFound — a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict — uniqueness or referential-integrity violation.
	ErrConflict = errors.New("conflict")

	// ErrCapacityExceeded — the slot has no free spots at booking time.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidTransition — disallowed booking status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden — the caller's role lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized — missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument — the request itself is malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
