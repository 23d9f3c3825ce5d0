package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/service"
	"github.com/noah-isme/gema-progress-api/internal/utils"
)

// TargetHandler exposes target configuration endpoints to staff.
type TargetHandler struct {
	service service.TargetService
	logger  zerolog.Logger
}

// NewTargetHandler constructs the handler.
func NewTargetHandler(service service.TargetService, logger zerolog.Logger) *TargetHandler {
	return &TargetHandler{
		service: service,
		logger:  logger.With().Str("component", "target_handler").Logger(),
	}
}

// Register attaches target routes to the admin router group.
func (h *TargetHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/prerequisites", h.addPrerequisite)
}

func (h *TargetHandler) create(c *fiber.Ctx) error {
	var payload dto.TargetUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	target, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to create target")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "target created", target)
}

func (h *TargetHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	target, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load target")
	}
	return utils.SendSuccess(c, "target retrieved", target)
}

func (h *TargetHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TargetUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	target, err := h.service.Update(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to update target")
	}
	return utils.SendSuccess(c, "target updated", target)
}

func (h *TargetHandler) addPrerequisite(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PrerequisiteCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	target, err := h.service.AddPrerequisite(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to add prerequisite")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "prerequisite added", target)
}
