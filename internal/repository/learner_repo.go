package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/models"
)

// LearnerRepository reads learners with their current level.
type LearnerRepository interface {
	GetByID(ctx context.Context, id uint) (models.Learner, error)
}

type learnerRepository struct {
	db *gorm.DB
}

// NewLearnerRepository instantiates the repository.
func NewLearnerRepository(db *gorm.DB) LearnerRepository {
	return &learnerRepository{db: db}
}

func (r *learnerRepository) GetByID(ctx context.Context, id uint) (models.Learner, error) {
	var learner models.Learner
	if err := r.db.WithContext(ctx).Preload("Level").First(&learner, id).Error; err != nil {
		return models.Learner{}, err
	}
	return learner, nil
}
