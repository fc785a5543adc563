package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
	"github.com/avoroshilov/lessonbook/internal/service"
)

type userCreateRequest struct {
	TelegramID int64  `json:"telegram_id" validate:"omitempty,gt=0"`
	Role       string `json:"role" validate:"omitempty,oneof=guest client teacher admin"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LastName   string `json:"last_name" validate:"omitempty,max=100"`
	Username   string `json:"username" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
}

type userPatchRequest struct {
	Role      *string `json:"role" validate:"omitempty,oneof=guest client teacher admin"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Username  *string `json:"username" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	page := parsePage(c)
	filter := repository.UserFilter{
		Role:  model.UserRole(c.Query("role")),
		Query: c.Query("q"),
	}
	users, total, err := s.services.Users.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return writeList(c, users, total)
}

func (s *Server) getUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := s.services.Users.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) createUser(c *fiber.Ctx) error {
	var req userCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user := &model.User{
		TelegramID: req.TelegramID,
		Role:       model.UserRole(req.Role),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Username:   req.Username,
		Phone:      req.Phone,
		Email:      req.Email,
	}
	created, err := s.services.Users.Create(c.Context(), user)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) patchUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req userPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := service.UserPatch{
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	user, err := s.services.Users.Patch(c.Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	force := c.Query("force") == "true"
	if err := s.services.Users.Delete(c.Context(), id, force, s.services.Teachers); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
