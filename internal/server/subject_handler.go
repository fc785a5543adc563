package server

import (
	"github.com/gofiber/fiber/v2"
)

type subjectCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	Code string `json:"code" validate:"omitempty,max=32"`
}

type subjectPatchRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Code *string `json:"code" validate:"omitempty,max=32"`
}

func (s *Server) listSubjects(c *fiber.Ctx) error {
	page := parsePage(c)
	subjects, total, err := s.services.Subjects.List(c.Context(), c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return writeList(c, subjects, total)
}

func (s *Server) getSubject(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	subject, err := s.services.Subjects.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(subject)
}

func (s *Server) createSubject(c *fiber.Ctx) error {
	var req subjectCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	subject, err := s.services.Subjects.Create(c.Context(), req.Name, req.Code)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(subject)
}

func (s *Server) patchSubject(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req subjectPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	subject, err := s.services.Subjects.Patch(c.Context(), id, req.Name, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(subject)
}

func (s *Server) deleteSubject(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Subjects.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
