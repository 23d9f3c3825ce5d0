package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/middleware"
	"github.com/noah-isme/gema-progress-api/internal/service"
	"github.com/noah-isme/gema-progress-api/internal/utils"
)

// SubmissionHandler lets learners submit work and read their submissions.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission routes to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	learnerID, err := learnerScope(c, payload.LearnerID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to create submission")
	}
	payload.LearnerID = learnerID

	submission, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to create submission")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load submission")
	}

	if !middleware.IsStaff(middleware.RoleFromLocals(c)) && !ownsSubmission(c, submission) {
		return utils.SendError(c, fiber.StatusNotFound, service.ErrSubmissionNotFound.Error())
	}
	return utils.SendSuccess(c, "submission retrieved", submission)
}

// ownsSubmission reports whether the calling learner created the submission.
func ownsSubmission(c *fiber.Ctx, submission dto.SubmissionResponse) bool {
	learnerID := learnerIDFromContext(c)
	return learnerID != 0 && submission.LearnerID == learnerID
}
