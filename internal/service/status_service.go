package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/grading"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/observability"
	"github.com/noah-isme/gema-progress-api/internal/progress"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

// StatusService answers "what is the status of this target for this learner".
type StatusService interface {
	Resolve(ctx context.Context, targetID, learnerID uint) (dto.TargetStatusResponse, error)
}

type statusService struct {
	resolver    *progress.Resolver
	learners    repository.LearnerRepository
	courses     repository.CourseRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStatusService wires the resolver to the repositories. cache may be nil.
func NewStatusService(targets repository.TargetRepository, learners repository.LearnerRepository, courses repository.CourseRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatusService {
	source := &repositorySource{targets: targets, learners: learners, submissions: submissions}
	return &statusService{
		resolver:    progress.NewResolver(source),
		learners:    learners,
		courses:     courses,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "status_service").Logger(),
		now:         time.Now,
	}
}

func (s *statusService) Resolve(ctx context.Context, targetID, learnerID uint) (dto.TargetStatusResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-progress-api/internal/service/status")
	ctx, span := tracer.Start(ctx, "status.resolve")
	span.SetAttributes(
		attribute.Int64("status.target_id", int64(targetID)),
		attribute.Int64("status.learner_id", int64(learnerID)),
	)
	defer span.End()

	started := s.now()
	defer func() {
		observability.StatusResolutionLatency().Observe(s.now().Sub(started).Seconds())
	}()

	response := dto.TargetStatusResponse{TargetID: targetID, LearnerID: learnerID}

	cacheKey, err := s.cacheKey(ctx, targetID, learnerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache_key_failed")
		return dto.TargetStatusResponse{}, err
	}

	if cacheKey != "" {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			status := progress.Status(cached)
			response.Status = string(status)
			response.Submittable = !status.Unsubmittable() && status != progress.StatusNotAccepted
			response.CacheHit = true
			span.SetAttributes(attribute.Bool("status.cache_hit", true))
			observability.StatusResolutions().WithLabelValues(cached, "hit").Inc()
			return response, nil
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("failed to read status cache")
		}
	}

	status, err := s.resolver.Resolve(ctx, targetID, learnerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve_failed")
		if !errors.Is(err, ErrTargetNotFound) && !errors.Is(err, ErrLearnerNotFound) {
			s.logger.Error().Err(err).Uint("target_id", targetID).Uint("learner_id", learnerID).Msg("status resolution failed")
		}
		return dto.TargetStatusResponse{}, err
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, string(status), s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store status cache")
		}
	}

	response.Status = string(status)
	response.Submittable = !status.Unsubmittable() && status != progress.StatusNotAccepted
	span.SetAttributes(attribute.String("status.value", response.Status))
	observability.StatusResolutions().WithLabelValues(response.Status, "miss").Inc()
	return response, nil
}

// cacheKey folds every input of a resolution into the key, so a stale entry is
// never read after a submission, level or configuration change. It returns ""
// when caching is disabled.
func (s *statusService) cacheKey(ctx context.Context, targetID, learnerID uint) (string, error) {
	if s.cache == nil {
		return "", nil
	}

	learner, err := s.learners.GetByID(ctx, learnerID)
	if err != nil {
		return "", translateNotFound(err, ErrLearnerNotFound)
	}
	course, err := s.courses.GetByID(ctx, learner.CourseID)
	if err != nil {
		return "", translateNotFound(err, ErrCourseNotFound)
	}
	stamp, err := s.submissions.Stamp(ctx, learner.ID, learner.TeamID)
	if err != nil {
		return "", err
	}

	var teamID uint
	if learner.TeamID != nil {
		teamID = *learner.TeamID
	}
	return fmt.Sprintf("progress:status:%d:%d:team:%d:level:%d:config:%d:subs:%d.%d.%d",
		targetID, learner.ID, teamID, learner.Level.Number, course.ConfigVersion,
		stamp.Count, stamp.VersionSum, stamp.LatestChange), nil
}

// repositorySource adapts the repositories to the resolver's read interface.
type repositorySource struct {
	targets     repository.TargetRepository
	learners    repository.LearnerRepository
	submissions repository.SubmissionRepository
}

func (r *repositorySource) Target(ctx context.Context, id uint) (progress.Target, error) {
	target, err := r.targets.GetByID(ctx, id)
	if err != nil {
		return progress.Target{}, translateNotFound(err, ErrTargetNotFound)
	}
	return progress.Target{
		ID:              target.ID,
		CourseID:        target.CourseID,
		Role:            progress.Role(target.Role),
		Submittability:  progress.Submittability(target.Submittability),
		LevelNumber:     target.LevelNumber(),
		PrerequisiteIDs: target.PrerequisiteIDs(),
	}, nil
}

func (r *repositorySource) Learner(ctx context.Context, id uint) (progress.Learner, error) {
	learner, err := r.learners.GetByID(ctx, id)
	if err != nil {
		return progress.Learner{}, translateNotFound(err, ErrLearnerNotFound)
	}
	return progress.Learner{
		ID:          learner.ID,
		CourseID:    learner.CourseID,
		TeamID:      learner.TeamID,
		LevelNumber: learner.Level.Number,
	}, nil
}

func (r *repositorySource) LatestSubmission(ctx context.Context, targetID uint, owner progress.Owner) (*progress.Submission, error) {
	submission, err := r.submissions.Latest(ctx, targetID, ownerKind(owner.Kind), owner.ID)
	if err != nil || submission == nil {
		return nil, err
	}
	return &progress.Submission{ID: submission.ID, Verdict: grading.Verdict(submission.Verdict)}, nil
}

func (r *repositorySource) MilestoneTargetsBelow(ctx context.Context, courseID uint, levelNumber int) ([]uint, error) {
	return r.targets.MilestoneTargetIDsBelow(ctx, courseID, levelNumber)
}

func ownerKind(kind progress.OwnerKind) string {
	if kind == progress.OwnerTeam {
		return models.SubmissionOwnerTeam
	}
	return models.SubmissionOwnerLearner
}
