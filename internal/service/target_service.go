package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/progress"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

// TargetService manages target configuration and the prerequisite graph.
type TargetService interface {
	Create(ctx context.Context, payload dto.TargetUpsertRequest, actor ActivityActor) (dto.TargetResponse, error)
	Update(ctx context.Context, id uint, payload dto.TargetUpsertRequest, actor ActivityActor) (dto.TargetResponse, error)
	Get(ctx context.Context, id uint) (dto.TargetResponse, error)
	AddPrerequisite(ctx context.Context, targetID uint, payload dto.PrerequisiteCreateRequest, actor ActivityActor) (dto.TargetResponse, error)
}

type targetService struct {
	targets   repository.TargetRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewTargetService constructs the target configuration service.
func NewTargetService(targets repository.TargetRepository, courses repository.CourseRepository, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) TargetService {
	return &targetService{
		targets:   targets,
		courses:   courses,
		validator: validator,
		activity:  activity,
		logger:    logger.With().Str("component", "target_service").Logger(),
	}
}

func (s *targetService) Create(ctx context.Context, payload dto.TargetUpsertRequest, actor ActivityActor) (dto.TargetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TargetResponse{}, err
	}
	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		return dto.TargetResponse{}, translateNotFound(err, ErrCourseNotFound)
	}

	target := applyTargetPayload(models.Target{}, payload)
	if err := s.validate(ctx, target, payload.CriterionIDs); err != nil {
		return dto.TargetResponse{}, err
	}

	if err := s.targets.Create(ctx, &target, uniqueIDs(payload.CriterionIDs)); err != nil {
		s.logger.Error().Err(err).Msg("failed to create target")
		return dto.TargetResponse{}, err
	}

	s.record(ctx, actor, target.ID, models.ActivityTargetConfigured, map[string]interface{}{
		"operation": "create",
		"title":     target.Title,
	})
	return s.Get(ctx, target.ID)
}

func (s *targetService) Update(ctx context.Context, id uint, payload dto.TargetUpsertRequest, actor ActivityActor) (dto.TargetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TargetResponse{}, err
	}

	existing, err := s.targets.GetByID(ctx, id)
	if err != nil {
		return dto.TargetResponse{}, translateNotFound(err, ErrTargetNotFound)
	}
	if existing.CourseID != payload.CourseID {
		return dto.TargetResponse{}, apperror.ConfigurationErrors{{Field: "course_id", Message: "cannot be changed"}}
	}

	target := applyTargetPayload(existing, payload)
	if err := s.validate(ctx, target, payload.CriterionIDs); err != nil {
		return dto.TargetResponse{}, err
	}

	if err := s.targets.Update(ctx, &target, uniqueIDs(payload.CriterionIDs)); err != nil {
		s.logger.Error().Err(err).Uint("target_id", id).Msg("failed to update target")
		return dto.TargetResponse{}, err
	}

	s.record(ctx, actor, target.ID, models.ActivityTargetConfigured, map[string]interface{}{
		"operation": "update",
		"title":     target.Title,
	})
	return s.Get(ctx, target.ID)
}

func (s *targetService) Get(ctx context.Context, id uint) (dto.TargetResponse, error) {
	target, err := s.targets.GetByID(ctx, id)
	if err != nil {
		return dto.TargetResponse{}, translateNotFound(err, ErrTargetNotFound)
	}
	return dto.NewTargetResponse(target), nil
}

// AddPrerequisite links prerequisiteID to targetID. The cycle check runs
// against the edges read inside the write transaction.
func (s *targetService) AddPrerequisite(ctx context.Context, targetID uint, payload dto.PrerequisiteCreateRequest, actor ActivityActor) (dto.TargetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TargetResponse{}, err
	}

	target, err := s.targets.GetByID(ctx, targetID)
	if err != nil {
		return dto.TargetResponse{}, translateNotFound(err, ErrTargetNotFound)
	}
	prerequisite, err := s.targets.GetByID(ctx, payload.PrerequisiteID)
	if err != nil {
		return dto.TargetResponse{}, translateNotFound(err, ErrTargetNotFound)
	}
	if prerequisite.CourseID != target.CourseID {
		return dto.TargetResponse{}, apperror.ConfigurationErrors{{Field: "prerequisites", Message: "must belong to the same course"}}
	}
	for _, existing := range target.PrerequisiteIDs() {
		if existing == prerequisite.ID {
			return dto.NewTargetResponse(target), nil
		}
	}

	edge := models.TargetPrerequisite{TargetID: target.ID, PrerequisiteTargetID: prerequisite.ID}
	guard := func(stored []models.TargetPrerequisite) error {
		edges := make([]progress.Edge, 0, len(stored))
		for _, e := range stored {
			edges = append(edges, progress.Edge{Target: e.TargetID, Prerequisite: e.PrerequisiteTargetID})
		}
		if progress.NewGraph(edges).WouldCycle(edge.TargetID, edge.PrerequisiteTargetID) {
			return apperror.ConfigurationErrors{{
				Field:   "prerequisites",
				Message: fmt.Sprintf("target %d cannot depend on target %d", edge.TargetID, edge.PrerequisiteTargetID),
				Err:     apperror.ErrPrerequisiteCycle,
			}}
		}
		return nil
	}

	if err := s.targets.AddPrerequisite(ctx, target.CourseID, edge, guard); err != nil {
		if _, ok := apperror.AsConfiguration(err); !ok {
			s.logger.Error().Err(err).Uint("target_id", target.ID).Msg("failed to add prerequisite")
		}
		return dto.TargetResponse{}, err
	}

	s.record(ctx, actor, target.ID, models.ActivityPrerequisiteAdded, map[string]interface{}{
		"prerequisite_id": prerequisite.ID,
	})
	return s.Get(ctx, target.ID)
}

func (s *targetService) validate(ctx context.Context, target models.Target, criterionIDs []uint) error {
	lookups := TargetContext{}

	if target.TargetGroupID != nil {
		group, err := s.targets.GetGroup(ctx, *target.TargetGroupID)
		switch {
		case err == nil:
			lookups.Group = &group
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}

	if target.Key != nil {
		taken, err := s.targets.KeyTaken(ctx, *target.Key, target.ID)
		if err != nil {
			return err
		}
		lookups.KeyTaken = taken
	}

	found, err := s.targets.CriteriaInCourse(ctx, target.CourseID, uniqueIDs(criterionIDs))
	if err != nil {
		return err
	}
	lookups.CriteriaFound = found

	if errs := ValidateTarget(target, criterionIDs, lookups); len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *targetService) record(ctx context.Context, actor ActivityActor, targetID uint, action string, metadata map[string]interface{}) {
	id := targetID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: ActivityEntityTarget,
		EntityID:   &id,
		Metadata:   metadata,
	})
}

func applyTargetPayload(target models.Target, payload dto.TargetUpsertRequest) models.Target {
	target.CourseID = payload.CourseID
	target.TargetGroupID = payload.TargetGroupID
	target.Key = trimmedOrNil(payload.Key)
	target.Title = strings.TrimSpace(payload.Title)
	target.Description = payload.Description
	target.Role = strings.TrimSpace(payload.Role)
	target.Submittability = strings.TrimSpace(payload.Submittability)
	target.CallToAction = strings.TrimSpace(payload.CallToAction)
	target.DaysToComplete = payload.DaysToComplete
	target.SessionAt = payload.SessionAt
	target.SessionBy = trimmedOrNil(payload.SessionBy)
	target.FacultyID = payload.FacultyID
	target.Archived = payload.Archived
	target.TargetGroup = nil
	target.EvaluationCriteria = nil
	target.Prerequisites = nil
	return target
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func translateNotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
