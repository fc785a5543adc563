package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/avoroshilov/lessonbook/internal/apperr"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

var validate = validator.New()

// pageParams is the resolved LIMIT/OFFSET of one list request.
type pageParams struct {
	Limit  int
	Offset int
}

// parsePage accepts both pagination dialects: react-admin style
// `_page`/`_limit` (1-based pages) and plain `limit`/`offset`. When both are
// present the page dialect wins.
func parsePage(c *fiber.Ctx) pageParams {
	p := pageParams{Limit: defaultPageSize}

	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		p.Offset = v
	}

	if raw := c.Query("_limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if raw := c.Query("_page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Offset = (v - 1) * p.Limit
		}
	}

	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}

	return p
}

// writeList sends a list body with the unpaginated total in X-Total-Count.
func writeList(c *fiber.Ctx, items any, total int64) error {
	c.Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(items)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", apperr.ErrInvalidArgument, c.Params("id"))
	}
	return id, nil
}

func queryInt64(c *fiber.Ctx, name string) int64 {
	v, _ := strconv.ParseInt(c.Query(name), 10, 64)
	return v
}

func queryTime(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD, got %q", apperr.ErrInvalidArgument, name, raw)
	}
	return t, nil
}

// parseBody decodes and validates a JSON payload.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalidArgument)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, err)
	}
	return nil
}
