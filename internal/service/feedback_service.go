package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

// FeedbackService appends coach notes to submissions. Notes never change grading.
type FeedbackService interface {
	Add(ctx context.Context, submissionID uint, payload dto.FeedbackCreateRequest, actor ActivityActor) (dto.FeedbackResponse, error)
	List(ctx context.Context, submissionID uint) ([]dto.FeedbackResponse, error)
}

type feedbackService struct {
	feedback    repository.FeedbackRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	policy      *bluemonday.Policy
	logger      zerolog.Logger
}

// NewFeedbackService constructs the feedback service.
func NewFeedbackService(feedback repository.FeedbackRepository, submissions repository.SubmissionRepository, validator *validator.Validate, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		feedback:    feedback,
		submissions: submissions,
		validator:   validator,
		policy:      bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "feedback_service").Logger(),
	}
}

func (s *feedbackService) Add(ctx context.Context, submissionID uint, payload dto.FeedbackCreateRequest, actor ActivityActor) (dto.FeedbackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackResponse{}, err
	}
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		return dto.FeedbackResponse{}, translateNotFound(err, ErrSubmissionNotFound)
	}

	body := strings.TrimSpace(s.policy.Sanitize(payload.Body))
	if body == "" {
		return dto.FeedbackResponse{}, ErrEmptyFeedback
	}

	entry := models.Feedback{
		SubmissionID: submissionID,
		FacultyID:    actor.ID,
		Body:         body,
	}
	if err := s.feedback.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to store feedback")
		return dto.FeedbackResponse{}, err
	}
	return dto.NewFeedbackResponse(entry), nil
}

func (s *feedbackService) List(ctx context.Context, submissionID uint) ([]dto.FeedbackResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		return nil, translateNotFound(err, ErrSubmissionNotFound)
	}

	entries, err := s.feedback.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.FeedbackResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewFeedbackResponse(entry))
	}
	return responses, nil
}
