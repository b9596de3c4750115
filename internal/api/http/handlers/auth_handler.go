package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/techcollege/referral-service/internal/api/dto"
	"github.com/techcollege/referral-service/internal/service"
)

// AuthHandler exposes login and self-service endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	staffService *service.StaffService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, staffService *service.StaffService) *AuthHandler {
	return &AuthHandler{authService: authService, staffService: staffService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	staff, token, exp, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, fiber.Map{
		"staff": dto.NewStaffResponse(staff),
		"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	staff, err := currentStaff(c)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewStaffResponse(staff))
}

// ChangePassword handles PUT /me/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	staff, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.authService.ChangePassword(c.UserContext(), staff, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return data(c, fiber.StatusOK, fiber.Map{"status": "password_changed"})
}

// SetMessagingHandle handles PUT /me/messaging-handle.
func (h *AuthHandler) SetMessagingHandle(c *fiber.Ctx) error {
	staff, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.MessagingHandleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.staffService.SetMessagingHandle(c.UserContext(), staff, req.MessagingHandle)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewStaffResponse(updated))
}
