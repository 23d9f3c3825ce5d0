package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/service"
	"github.com/noah-isme/gema-progress-api/internal/utils"
)

// GradingHandler exposes the reviewer grading endpoints.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading routes to the admin submissions group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Patch("/:id/grades", h.commit)
	router.Delete("/:id/grades", h.undo)
}

func (h *GradingHandler) commit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.Commit(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to grade submission")
	}
	return utils.SendSuccess(c, "grades committed", submission)
}

func (h *GradingHandler) undo(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	version, err := parseQueryUint(c, "version")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid version")
	}

	submission, err := h.service.Undo(c.UserContext(), id, version, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to undo grading")
	}
	return utils.SendSuccess(c, "grading undone", submission)
}
