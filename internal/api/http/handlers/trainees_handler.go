package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/techcollege/referral-service/internal/api/dto"
	"github.com/techcollege/referral-service/internal/repository"
	"github.com/techcollege/referral-service/internal/service"
)

// TraineesHandler exposes trainee reference data.
type TraineesHandler struct {
	trainees *service.TraineeService
}

// NewTraineesHandler constructs handler.
func NewTraineesHandler(trainees *service.TraineeService) *TraineesHandler {
	return &TraineesHandler{trainees: trainees}
}

// List handles GET /trainees.
func (h *TraineesHandler) List(c *fiber.Ctx) error {
	filter := repository.TraineeFilter{
		Query:  c.Query("q"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if spec := c.Query("specialization"); spec != "" {
		filter.Specialization = &spec
	}
	list, err := h.trainees.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	if list == nil {
		return data(c, fiber.StatusOK, []any{})
	}
	return data(c, fiber.StatusOK, list)
}

// Get handles GET /trainees/:trainingNumber.
func (h *TraineesHandler) Get(c *fiber.Ctx) error {
	trainee, err := h.trainees.Get(c.UserContext(), c.Params("trainingNumber"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, trainee)
}

// Import handles POST /trainees/import.
func (h *TraineesHandler) Import(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.TraineeImportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	n, err := h.trainees.Import(c.UserContext(), actor, req.Trainees)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, fiber.Map{"imported": n})
}
