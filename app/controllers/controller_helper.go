package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// parseUintParam reads a positive integer route parameter.
func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, apperr.Validation("invalid_"+name, "route parameter "+name+" must be a positive integer")
	}
	return uint(v), nil
}

// respondError maps engine errors to HTTP responses with a stable
// machine-readable error field.
func respondError(c *fiber.Ctx, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		status := fiber.StatusInternalServerError
		switch e.Code {
		case apperr.CodeValidation:
			status = fiber.StatusBadRequest
		case apperr.CodeConflict:
			status = fiber.StatusConflict
		case apperr.CodeNotFound:
			status = fiber.StatusNotFound
		case apperr.CodeBalance:
			status = fiber.StatusUnprocessableEntity
		case apperr.CodeUnauthorized:
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(fiber.Map{"error": e.Reason, "message": e.Msg})
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
}
