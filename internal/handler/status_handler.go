package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/service"
	"github.com/noah-isme/gema-progress-api/internal/utils"
)

// StatusHandler serves computed target statuses.
type StatusHandler struct {
	service service.StatusService
	logger  zerolog.Logger
}

// NewStatusHandler constructs the handler.
func NewStatusHandler(service service.StatusService, logger zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		logger:  logger.With().Str("component", "status_handler").Logger(),
	}
}

// Register attaches status routes to the targets router group.
func (h *StatusHandler) Register(router fiber.Router) {
	router.Get("/:id/status", h.status)
}

func (h *StatusHandler) status(c *fiber.Ctx) error {
	targetID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	requested, err := parseQueryUint(c, "learner_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid learner_id")
	}
	learnerID, err := learnerScope(c, requested)
	if err != nil {
		return handleError(c, h.logger, err, "failed to resolve status")
	}

	status, err := h.service.Resolve(c.UserContext(), targetID, learnerID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to resolve status")
	}
	return utils.SendSuccess(c, "status resolved", status)
}
