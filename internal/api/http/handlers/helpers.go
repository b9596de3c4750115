package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/techcollege/referral-service/internal/auth"
	"github.com/techcollege/referral-service/internal/domain"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

func currentStaff(c *fiber.Ctx) (*domain.Staff, error) {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return staff, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	return nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
