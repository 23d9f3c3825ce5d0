package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/middleware"
	"github.com/noah-isme/gema-progress-api/internal/service"
	"github.com/noah-isme/gema-progress-api/internal/utils"
)

var errInvalidIdentifier = errors.New("invalid identifier")

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errInvalidIdentifier
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func userIDFromContext(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalUserID).(uint)
	return id
}

func learnerIDFromContext(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalLearnerID).(uint)
	return id
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: middleware.RoleFromLocals(c),
	}
}

// learnerScope resolves which learner a request acts for. Learners always act
// for themselves; staff name the learner explicitly.
func learnerScope(c *fiber.Ctx, requested uint) (uint, error) {
	if middleware.IsStaff(middleware.RoleFromLocals(c)) {
		if requested == 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "learner_id is required")
		}
		return requested, nil
	}

	own := learnerIDFromContext(c)
	if own == 0 {
		return 0, fiber.NewError(fiber.StatusForbidden, "token is not bound to a learner")
	}
	if requested != 0 && requested != own {
		return 0, fiber.NewError(fiber.StatusForbidden, "learners can only act for themselves")
	}
	return own, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) zerolog.Logger {
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		return base.With().Str("correlation_id", correlation).Logger()
	}
	return base
}

// handleError maps service errors onto HTTP responses.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var validationErrors validator.ValidationErrors
	var fiberErr *fiber.Error

	if list, ok := apperror.AsConfiguration(err); ok {
		return utils.SendErrorWithDetails(c, fiber.StatusUnprocessableEntity, "invalid target configuration", list.Fields())
	}

	switch {
	case errors.As(err, &fiberErr):
		return utils.SendError(c, fiberErr.Code, fiberErr.Message)
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, apperror.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperror.ErrConcurrentModification):
		return utils.SendError(c, fiber.StatusConflict, "submission was modified by another reviewer, reload and retry")
	case errors.Is(err, service.ErrSubmissionSuperseded),
		errors.Is(err, service.ErrResubmissionNotAllowed),
		errors.Is(err, service.ErrTargetNotSubmittable):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidGrade),
		errors.Is(err, service.ErrCriterionNotInRubric),
		errors.Is(err, service.ErrTargetNotGradable),
		errors.Is(err, service.ErrEmptyFeedback):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		entry := requestLogger(logger, c)
		entry.Error().Err(err).Str("route", c.Route().Path).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
