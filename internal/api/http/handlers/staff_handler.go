package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/techcollege/referral-service/internal/api/dto"
	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/service"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// StaffHandler exposes staff directory endpoints.
type StaffHandler struct {
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}

	var filters service.StaffListFilters
	if role := c.Query("role"); role != "" {
		r := domain.StaffRole(role)
		if !r.Valid() {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
		}
		filters.Role = &r
	}
	if spec := c.Query("specialization"); spec != "" {
		filters.Specialization = &spec
	}
	if raw := c.Query("counselor"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid counselor filter", map[string]any{"counselor": raw})
		}
		filters.Counselor = &flag
	}

	list, err := h.staffService.List(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewStaffResponse(&list[i]))
	}
	return data(c, fiber.StatusOK, resp)
}

// Create handles POST /staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	staff, err := h.staffService.Create(c.UserContext(), actor, service.StaffCreateInput{
		Name:            req.Name,
		Username:        req.Username,
		Password:        req.Password,
		Role:            req.Role,
		Specialization:  req.Specialization,
		IsCounselor:     req.IsCounselor,
		MessagingHandle: req.MessagingHandle,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewStaffResponse(staff))
}

// SetCounselor handles PUT /staff/:id/counselor.
func (h *StaffHandler) SetCounselor(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.CounselorFlagRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.IsCounselor == nil {
		return apperrors.NewValidationError("isCounselor required", nil)
	}
	staff, err := h.staffService.SetCounselor(c.UserContext(), actor, c.Params("id"), *req.IsCounselor)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewStaffResponse(staff))
}

// ResetPassword handles POST /staff/:id/password/reset.
func (h *StaffHandler) ResetPassword(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	if err := h.staffService.ResetPassword(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return data(c, fiber.StatusOK, fiber.Map{"status": "password_reset"})
}

// Delete handles DELETE /staff/:id.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	if err := h.staffService.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
