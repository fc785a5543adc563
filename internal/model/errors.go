package model

import (
	"fmt"

	"github.com/avoroshilov/lessonbook/internal/apperr"
)

var (
	ErrIndividualCapacity = fmt.Errorf("%w: individual lessons require capacity 1", apperr.ErrInvalidArgument)
	ErrGroupCapacity      = fmt.Errorf("%w: group lessons require capacity >= 2", apperr.ErrInvalidArgument)
	ErrUnknownLessonType  = fmt.Errorf("%w: lesson_type must be 'individual' or 'group'", apperr.ErrInvalidArgument)
)
