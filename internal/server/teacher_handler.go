package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/service"
)

type teacherCreateRequest struct {
	UserID      int64   `json:"user_id" validate:"required,gt=0"`
	DefaultMode string  `json:"default_mode" validate:"omitempty,oneof=online offline mixed"`
	Bio         string  `json:"bio" validate:"omitempty,max=2000"`
	SubjectIDs  []int64 `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

type teacherPatchRequest struct {
	DefaultMode *string `json:"default_mode" validate:"omitempty,oneof=online offline mixed"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	SubjectIDs  []int64 `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

type teacherSubjectsRequest struct {
	SubjectIDs []int64 `json:"subject_ids" validate:"required,dive,gt=0"`
}

func (s *Server) listTeachers(c *fiber.Ctx) error {
	page := parsePage(c)
	filter := repository.TeacherFilter{
		Query:     c.Query("q"),
		SubjectID: queryInt64(c, "subject_id"),
	}
	teachers, total, err := s.services.Teachers.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return writeList(c, teachers, total)
}

func (s *Server) getTeacher(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	teacher, err := s.services.Teachers.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(teacher)
}

func (s *Server) createTeacher(c *fiber.Ctx) error {
	var req teacherCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	teacher, err := s.services.Teachers.Create(
		c.Context(), req.UserID, model.TeacherMode(req.DefaultMode), req.Bio, req.SubjectIDs)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(teacher)
}

func (s *Server) patchTeacher(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req teacherPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := service.TeacherPatch{
		DefaultMode: req.DefaultMode,
		Bio:         req.Bio,
		SubjectIDs:  req.SubjectIDs,
	}
	teacher, err := s.services.Teachers.Patch(c.Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(teacher)
}

func (s *Server) setTeacherSubjects(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req teacherSubjectsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.services.Teachers.SetSubjects(c.Context(), id, req.SubjectIDs); err != nil {
		return err
	}
	teacher, err := s.services.Teachers.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(teacher)
}

func (s *Server) deleteTeacher(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Teachers.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
