package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/models"
)

// FeedbackRepository stores the append-only feedback log of submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Omit("Submission").Create(feedback).Error
}

func (r *feedbackRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Feedback, error) {
	var entries []models.Feedback
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
