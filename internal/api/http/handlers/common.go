package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/api/dto"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"data": data})
}

// bind decodes the JSON body into dst and runs tag validation.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(dst)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

// queryID reads an optional positive integer query parameter.
func queryID(c *fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid query parameter", map[string]any{name: raw})
	}
	return &id, nil
}

func notFound(resource string, id int64) error {
	return apperrors.NewNotFound(resource, map[string]any{"id": id})
}
