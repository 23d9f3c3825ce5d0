package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/progress"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

// SubmissionService records learner attempts and serves them with their grade card.
type SubmissionService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	targets     repository.TargetRepository
	learners    repository.LearnerRepository
	courses     repository.CourseRepository
	statuses    StatusService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(submissions repository.SubmissionRepository, targets repository.TargetRepository, learners repository.LearnerRepository, courses repository.CourseRepository, statuses StatusService, validator *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		targets:     targets,
		learners:    learners,
		courses:     courses,
		statuses:    statuses,
		validator:   validator,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

// Create stores a new attempt and supersedes the owner's previous live
// submission. The current status decides whether the learner may submit.
func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	target, err := s.targets.GetByID(ctx, payload.TargetID)
	if err != nil {
		return dto.SubmissionResponse{}, translateNotFound(err, ErrTargetNotFound)
	}
	learner, err := s.learners.GetByID(ctx, payload.LearnerID)
	if err != nil {
		return dto.SubmissionResponse{}, translateNotFound(err, ErrLearnerNotFound)
	}
	if target.Archived || target.Submittability == models.SubmittabilityNotSubmittable {
		return dto.SubmissionResponse{}, ErrTargetNotSubmittable
	}

	current, err := s.statuses.Resolve(ctx, target.ID, learner.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	status := progress.Status(current.Status)
	if status.Unsubmittable() || status == progress.StatusNotAccepted {
		return dto.SubmissionResponse{}, ErrTargetNotSubmittable
	}
	if status == progress.StatusComplete && target.Submittability != models.SubmittabilityResubmittable {
		return dto.SubmissionResponse{}, ErrResubmissionNotAllowed
	}

	owner, _ := progress.OwnerFor(progress.Target{Role: progress.Role(target.Role)}, progress.Learner{ID: learner.ID, TeamID: learner.TeamID})
	submission := models.Submission{
		TargetID:    target.ID,
		OwnerKind:   ownerKind(owner.Kind),
		OwnerID:     owner.ID,
		LearnerID:   learner.ID,
		Description: strings.TrimSpace(payload.Description),
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		s.logger.Error().Err(err).Uint("target_id", target.ID).Uint("learner_id", learner.ID).Msg("failed to create submission")
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("target_id", target.ID).
		Str("owner_kind", submission.OwnerKind).
		Msg("submission created")

	return s.Get(ctx, submission.ID)
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, translateNotFound(err, ErrSubmissionNotFound)
	}
	return renderSubmission(ctx, s.targets, s.courses, submission)
}

// renderSubmission builds the grade card from the target rubric and the course scale.
func renderSubmission(ctx context.Context, targets repository.TargetRepository, courses repository.CourseRepository, submission models.Submission) (dto.SubmissionResponse, error) {
	target, err := targets.GetByID(ctx, submission.TargetID)
	if err != nil {
		return dto.SubmissionResponse{}, translateNotFound(err, ErrTargetNotFound)
	}
	course, err := courses.GetByID(ctx, target.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, translateNotFound(err, ErrCourseNotFound)
	}
	return dto.NewSubmissionResponse(submission, target.EvaluationCriteria, course.MaxGrade), nil
}
