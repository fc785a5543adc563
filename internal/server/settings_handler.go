package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avoroshilov/lessonbook/internal/apperr"
)

func (s *Server) getSettings(c *fiber.Ctx) error {
	values, err := s.services.Settings.GetAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(values)
}

// putSettings replaces the submitted keys. Validation is all-or-nothing: one
// bad value fails the whole request and nothing is written.
func (s *Server) putSettings(c *fiber.Ctx) error {
	var values map[string]string
	if err := c.BodyParser(&values); err != nil {
		return fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalidArgument)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: empty settings payload", apperr.ErrInvalidArgument)
	}

	if err := s.services.Settings.Update(c.Context(), values); err != nil {
		return err
	}

	updated, err := s.services.Settings.GetAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (s *Server) teacherLoadReport(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = time.Now().AddDate(0, -1, 0)
	}
	if to.IsZero() {
		to = time.Now()
	}

	items, err := s.services.Reports.TeacherLoad(c.Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(items)
}
