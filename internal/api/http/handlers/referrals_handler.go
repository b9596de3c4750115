package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/techcollege/referral-service/internal/api/dto"
	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/service"
	"github.com/techcollege/referral-service/internal/workflow"
)

// ReferralsHandler exposes the referral workflow.
type ReferralsHandler struct {
	referrals *service.ReferralService
}

// NewReferralsHandler constructs handler.
func NewReferralsHandler(referrals *service.ReferralService) *ReferralsHandler {
	return &ReferralsHandler{referrals: referrals}
}

// List handles GET /referrals.
func (h *ReferralsHandler) List(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var filter service.ReferralListFilter
	if raw := c.Query("status"); raw != "" {
		status := domain.ReferralStatus(raw)
		filter.Status = &status
	}
	list, err := h.referrals.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	resp := make([]dto.ReferralResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewReferralResponse(&list[i]))
	}
	return data(c, fiber.StatusOK, resp)
}

// Create handles POST /referrals.
func (h *ReferralsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.ReferralCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	referral, err := h.referrals.Create(c.UserContext(), actor, workflow.CreateInput{
		TraineeName:     req.TraineeName,
		TrainingNumber:  req.TrainingNumber,
		Specialization:  req.Specialization,
		CaseDetails:     req.CaseDetails,
		CaseTypes:       req.CaseTypes,
		RepetitionLevel: req.RepetitionLevel,
		PreviousActions: req.PreviousActions,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, h.render(actor, referral))
}

// Get handles GET /referrals/:id.
func (h *ReferralsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	view, err := h.referrals.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.NewReferralResponse(view.Referral)
	resp.AvailableActions = h.actions(view.Referral.Status, view.AvailableActions)
	return data(c, fiber.StatusOK, resp)
}

// Act handles POST /referrals/:id/actions.
func (h *ReferralsHandler) Act(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.ReferralActionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	referral, err := h.referrals.ApplyAction(c.UserContext(), actor, c.Params("id"), req.Action, req.Comment, req.Version)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, h.render(actor, referral))
}

// AttachAdvisory handles PUT /referrals/:id/advisory.
func (h *ReferralsHandler) AttachAdvisory(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.AdvisoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	referral, err := h.referrals.AttachAdvisory(c.UserContext(), actor, c.Params("id"), req.Text, req.Version)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, h.render(actor, referral))
}

func (h *ReferralsHandler) render(actor *domain.Staff, referral *domain.Referral) dto.ReferralResponse {
	resp := dto.NewReferralResponse(referral)
	resp.AvailableActions = h.actions(referral.Status, h.referrals.AvailableActions(referral, actor))
	return resp
}

func (h *ReferralsHandler) actions(status domain.ReferralStatus, actions []workflow.Action) []dto.ActionResponse {
	out := make([]dto.ActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, dto.ActionResponse{
			Action:          string(a),
			Label:           a.DisplayName(),
			CommentRequired: h.referrals.CommentRequired(status, a),
		})
	}
	return out
}
