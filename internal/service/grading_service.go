package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/events"
	"github.com/noah-isme/gema-progress-api/internal/grading"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/observability"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

// GradingService commits and undoes reviewer grades on live submissions.
type GradingService interface {
	Commit(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	// Undo clears every grade and evaluation field. expectedVersion 0 skips the version check.
	Undo(ctx context.Context, submissionID uint, expectedVersion uint, actor ActivityActor) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	targets     repository.TargetRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	publisher   events.Publisher
	defaults    grading.Scale
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service. publisher may be nil;
// defaults applies to courses stored without a scale.
func NewGradingService(submissions repository.SubmissionRepository, targets repository.TargetRepository, courses repository.CourseRepository, validator *validator.Validate, activity ActivityRecorder, publisher events.Publisher, defaults grading.Scale, logger zerolog.Logger) GradingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &gradingService{
		submissions: submissions,
		targets:     targets,
		courses:     courses,
		validator:   validator,
		activity:    activity,
		publisher:   publisher,
		defaults:    defaults,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) Commit(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-progress-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.commit")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, fail(span, err, "validation_failed")
	}

	submission, err := s.liveSubmission(ctx, submissionID, payload.Version)
	if err != nil {
		return dto.SubmissionResponse{}, fail(span, err, "submission_unavailable")
	}

	target, err := s.targets.GetByID(ctx, submission.TargetID)
	if err != nil {
		return dto.SubmissionResponse{}, fail(span, translateNotFound(err, ErrTargetNotFound), "target_lookup_failed")
	}
	if !target.IsGradable() {
		return dto.SubmissionResponse{}, fail(span, ErrTargetNotGradable, "target_not_gradable")
	}

	course, err := s.courses.GetByID(ctx, target.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, fail(span, translateNotFound(err, ErrCourseNotFound), "course_lookup_failed")
	}
	scale, err := s.scaleFor(course)
	if err != nil {
		return dto.SubmissionResponse{}, fail(span, fmt.Errorf("course %d grading scale: %w", course.ID, err), "invalid_scale")
	}

	rubric := target.CriterionIDs()
	incoming, err := checkGrades(rubric, payload.Grades, scale)
	if err != nil {
		return dto.SubmissionResponse{}, fail(span, err, "invalid_grades")
	}

	current := submission.GradeMap()
	merged := make(map[uint]int, len(current)+len(incoming))
	for id, grade := range current {
		merged[id] = grade
	}
	for id, grade := range incoming {
		merged[id] = grade
	}

	if submission.IsEvaluated() && sameEvaluator(submission.EvaluatorID, actor.ID) && sameGrades(current, merged) {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return renderSubmission(ctx, s.targets, s.courses, submission)
	}

	verdict := grading.Aggregate(rubric, merged, scale)
	now := s.now().UTC()
	evaluator := actor.ID
	update := repository.GradingUpdate{
		Verdict:     string(verdict),
		EvaluatorID: &evaluator,
		EvaluatedAt: &now,
		Grades:      merged,
	}
	if verdict == grading.VerdictPassed {
		update.PassedAt = &now
	}

	if err := s.save(ctx, submission, update); err != nil {
		return dto.SubmissionResponse{}, fail(span, err, "submission_update_failed")
	}

	span.SetAttributes(attribute.String("grading.verdict", string(verdict)))
	observability.GradingOperations().WithLabelValues("commit", string(verdict)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("target_id", submission.TargetID).
		Uint("evaluator_id", actor.ID).
		Str("verdict", string(verdict)).
		Msg("grades committed")

	return s.afterWrite(ctx, submission, actor, events.GradingCommitted, models.ActivitySubmissionGraded, verdict, merged)
}

func (s *gradingService) Undo(ctx context.Context, submissionID uint, expectedVersion uint, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-progress-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.undo")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	submission, err := s.liveSubmission(ctx, submissionID, expectedVersion)
	if err != nil {
		return dto.SubmissionResponse{}, fail(span, err, "submission_unavailable")
	}

	if !submission.IsEvaluated() && len(submission.Grades) == 0 && submission.Verdict == models.VerdictReviewing {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return renderSubmission(ctx, s.targets, s.courses, submission)
	}

	if err := s.save(ctx, submission, repository.GradingUpdate{Verdict: models.VerdictReviewing}); err != nil {
		return dto.SubmissionResponse{}, fail(span, err, "submission_update_failed")
	}

	observability.GradingOperations().WithLabelValues("undo", string(grading.VerdictReviewing)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("actor_id", actor.ID).
		Msg("grading undone")

	return s.afterWrite(ctx, submission, actor, events.GradingUndone, models.ActivitySubmissionGradingUndone, grading.VerdictReviewing, nil)
}

func (s *gradingService) scaleFor(course models.Course) (grading.Scale, error) {
	if course.MaxGrade <= 0 {
		return grading.NewScale(s.defaults.MaxGrade, s.defaults.PassGrade)
	}
	return grading.NewScale(course.MaxGrade, course.PassGrade)
}

// liveSubmission loads a submission that may still be graded. History rows
// are immutable, and a caller holding a stale version loses before any write.
func (s *gradingService) liveSubmission(ctx context.Context, submissionID uint, expectedVersion uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return models.Submission{}, translateNotFound(err, ErrSubmissionNotFound)
	}
	if !submission.Latest {
		return models.Submission{}, ErrSubmissionSuperseded
	}
	if expectedVersion != 0 && expectedVersion != submission.Version {
		observability.GradingConflicts().Inc()
		return models.Submission{}, apperror.ErrConcurrentModification
	}
	return submission, nil
}

func (s *gradingService) save(ctx context.Context, submission models.Submission, update repository.GradingUpdate) error {
	err := s.submissions.SaveGrading(ctx, submission.ID, submission.Version, update)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperror.ErrConcurrentModification) {
		observability.GradingConflicts().Inc()
		s.logger.Warn().Uint("submission_id", submission.ID).Uint("version", submission.Version).Msg("grading lost a concurrent write")
		return err
	}
	s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to save grading")
	return err
}

func (s *gradingService) afterWrite(ctx context.Context, before models.Submission, actor ActivityActor, eventType, action string, verdict grading.Verdict, grades map[uint]int) (dto.SubmissionResponse, error) {
	submissionID := before.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: ActivityEntitySubmission,
		EntityID:   &submissionID,
		Metadata: map[string]interface{}{
			"target_id": before.TargetID,
			"verdict":   string(verdict),
			"version":   before.Version + 1,
			"grades":    gradeSnapshot(grades),
		},
	})

	event := events.GradingEvent{
		Type:         eventType,
		SubmissionID: before.ID,
		TargetID:     before.TargetID,
		OwnerKind:    before.OwnerKind,
		OwnerID:      before.OwnerID,
		ActorID:      actor.ID,
		Verdict:      string(verdict),
		Grades:       grades,
		Version:      before.Version + 1,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.PublishGrading(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", before.ID).Str("event", eventType).Msg("grading event not published")
	}

	updated, err := s.submissions.GetByID(ctx, before.ID)
	if err != nil {
		return dto.SubmissionResponse{}, translateNotFound(err, ErrSubmissionNotFound)
	}
	return renderSubmission(ctx, s.targets, s.courses, updated)
}

// checkGrades validates incoming grades against the rubric and the scale.
func checkGrades(rubric []uint, grades []dto.CriterionGradeRequest, scale grading.Scale) (map[uint]int, error) {
	allowed := make(map[uint]struct{}, len(rubric))
	for _, id := range rubric {
		allowed[id] = struct{}{}
	}

	out := make(map[uint]int, len(grades))
	for _, item := range grades {
		if _, ok := allowed[item.CriterionID]; !ok {
			return nil, fmt.Errorf("%w: criterion %d", ErrCriterionNotInRubric, item.CriterionID)
		}
		if !scale.InRange(item.Grade) {
			return nil, fmt.Errorf("%w: criterion %d got %d, expected 1..%d", ErrInvalidGrade, item.CriterionID, item.Grade, scale.MaxGrade)
		}
		if _, dup := out[item.CriterionID]; dup {
			return nil, fmt.Errorf("%w: criterion %d graded twice", ErrInvalidGrade, item.CriterionID)
		}
		out[item.CriterionID] = item.Grade
	}
	return out, nil
}

// gradeSnapshot keys grades by criterion id for the activity log's JSON metadata.
func gradeSnapshot(grades map[uint]int) map[string]int {
	out := make(map[string]int, len(grades))
	for criterionID, grade := range grades {
		out[strconv.FormatUint(uint64(criterionID), 10)] = grade
	}
	return out
}

func sameEvaluator(current *uint, actorID uint) bool {
	return current != nil && *current == actorID
}

func sameGrades(a, b map[uint]int) bool {
	if len(a) != len(b) {
		return false
	}
	for id, grade := range a {
		if other, ok := b[id]; !ok || other != grade {
			return false
		}
	}
	return true
}

func fail(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}
