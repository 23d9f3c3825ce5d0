package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/service"
	"github.com/noah-isme/gema-progress-api/internal/utils"
)

// FeedbackHandler exposes the submission feedback log to coaches.
type FeedbackHandler struct {
	service service.FeedbackService
	logger  zerolog.Logger
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(service service.FeedbackService, logger zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		logger:  logger.With().Str("component", "feedback_handler").Logger(),
	}
}

// Register attaches feedback routes to the admin submissions group.
func (h *FeedbackHandler) Register(router fiber.Router) {
	router.Post("/:id/feedback", h.add)
	router.Get("/:id/feedback", h.list)
}

func (h *FeedbackHandler) add(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.service.Add(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to add feedback")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback added", entry)
}

func (h *FeedbackHandler) list(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.service.List(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list feedback")
	}
	return utils.SendSuccess(c, "feedback retrieved", entries)
}
