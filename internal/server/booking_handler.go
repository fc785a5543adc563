package server

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository"
)

type bookingCreateRequest struct {
	SlotID    int64 `json:"slot_id" validate:"required,gt=0"`
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
}

type bookingPatchRequest struct {
	Status string `json:"status" validate:"required,oneof=new confirmed cancelled"`
}

func (s *Server) bookingFilter(c *fiber.Ctx) (repository.BookingFilter, error) {
	from, err := queryTime(c, "from")
	if err != nil {
		return repository.BookingFilter{}, err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return repository.BookingFilter{}, err
	}

	return repository.BookingFilter{
		Status:    model.BookingStatus(c.Query("status")),
		SlotID:    queryInt64(c, "slot_id"),
		StudentID: queryInt64(c, "student_id"),
		TeacherID: queryInt64(c, "teacher_id"),
		SubjectID: queryInt64(c, "subject_id"),
		From:      from,
		To:        to,
	}, nil
}

func (s *Server) listBookings(c *fiber.Ctx) error {
	page := parsePage(c)
	filter, err := s.bookingFilter(c)
	if err != nil {
		return err
	}
	rows, total, err := s.services.Bookings.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return writeList(c, rows, total)
}

func (s *Server) getBooking(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	booking, err := s.services.Bookings.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (s *Server) createBooking(c *fiber.Ctx) error {
	var req bookingCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	booking, err := s.services.Bookings.Create(c.Context(), req.SlotID, req.StudentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (s *Server) patchBooking(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req bookingPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	booking, err := s.services.Bookings.UpdateStatus(c.Context(), id, model.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (s *Server) deleteBooking(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Bookings.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// exportBookings streams the filtered ledger as CSV. Semicolon separator and
// a UTF-8 BOM keep the file double-clickable in Excel.
func (s *Server) exportBookings(c *fiber.Ctx) error {
	filter, err := s.bookingFilter(c)
	if err != nil {
		return err
	}
	rows, err := s.services.Bookings.ListAll(c.Context(), filter)
	if err != nil {
		return err
	}

	data, err := bookingsCSV(rows)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="bookings.csv"`)
	return c.Send(data)
}

// bookingsCSV renders ledger rows as CSV.
func bookingsCSV(rows []*model.BookingRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	header := []string{"id", "status", "slot_id", "student_id", "teacher_id", "subject_id", "start_time", "end_time"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ID, 10),
			string(row.Status),
			strconv.FormatInt(row.SlotID, 10),
			strconv.FormatInt(row.StudentID, 10),
			strconv.FormatInt(row.TeacherID, 10),
			strconv.FormatInt(row.SubjectID, 10),
			row.StartTime.Format(time.RFC3339),
			row.EndTime.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
