package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/techcollege/referral-service/internal/domain"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// RequireStaffRole ensures the caller has one of the allowed roles. With no
// roles it only checks that a caller is present.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		staff, ok := StaffFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[staff.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireDepartmentHead guards staff administration.
func RequireDepartmentHead() fiber.Handler {
	return RequireStaffRole(domain.StaffRoleDepartmentHead)
}

// RequireAnyRole ensures a staff member is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireStaffRole()
}
