package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/service"
)

type generateSlotsRequest struct {
	TeacherID     int64     `json:"teacher_id" validate:"required,gt=0"`
	SubjectID     int64     `json:"subject_id" validate:"required,gt=0"`
	WindowStart   time.Time `json:"window_start" validate:"required"`
	WindowEnd     time.Time `json:"window_end" validate:"required"`
	LessonType    string    `json:"lesson_type" validate:"omitempty,oneof=individual group"`
	Mode          string    `json:"mode" validate:"omitempty,oneof=online offline mixed"`
	Capacity      int       `json:"capacity" validate:"omitempty,gt=0"`
	SkipConflicts bool      `json:"skip_conflicts"`
}

type slotPatchRequest struct {
	Status     *string `json:"status" validate:"omitempty,oneof=available hidden cancelled"`
	Capacity   *int    `json:"capacity" validate:"omitempty,gt=0"`
	LessonType *string `json:"lesson_type" validate:"omitempty,oneof=individual group"`
	Mode       *string `json:"mode" validate:"omitempty,oneof=online offline mixed"`
}

func (s *Server) listSlots(c *fiber.Ctx) error {
	page := parsePage(c)

	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	filter := repository.SlotFilter{
		TeacherID:  queryInt64(c, "teacher_id"),
		SubjectID:  queryInt64(c, "subject_id"),
		Mode:       c.Query("mode"),
		LessonType: model.LessonType(c.Query("lesson_type")),
		Status:     model.SlotStatus(c.Query("status")),
		FreeOnly:   c.Query("free_only") == "true",
		From:       from,
		To:         to,
	}

	slots, total, err := s.services.Slots.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return writeList(c, slots, total)
}

func (s *Server) getSlot(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	slot, err := s.services.Slots.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(slot)
}

func (s *Server) generateSlots(c *fiber.Ctx) error {
	var req generateSlotsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.services.Slots.Generate(c.Context(), service.GenerateRequest{
		TeacherID:     req.TeacherID,
		SubjectID:     req.SubjectID,
		WindowStart:   req.WindowStart,
		WindowEnd:     req.WindowEnd,
		LessonType:    model.LessonType(req.LessonType),
		Mode:          req.Mode,
		Capacity:      req.Capacity,
		SkipConflicts: req.SkipConflicts,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) patchSlot(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req slotPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	slot, err := s.services.Slots.Patch(c.Context(), id, service.SlotPatch{
		Status:     req.Status,
		Capacity:   req.Capacity,
		LessonType: req.LessonType,
		Mode:       req.Mode,
	})
	if err != nil {
		return err
	}
	return c.JSON(slot)
}

func (s *Server) deleteSlot(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Slots.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
