package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/models"
)

// GradingUpdate is the full set of evaluation fields written by a commit or an undo.
type GradingUpdate struct {
	Verdict     string
	EvaluatorID *uint
	EvaluatedAt *time.Time
	PassedAt    *time.Time
	Grades      map[uint]int
}

// ProgressStamp changes whenever any submission of a learner or their team is
// created, graded or un-graded.
type ProgressStamp struct {
	Count        int64
	VersionSum   int64
	LatestChange int64
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Latest(ctx context.Context, targetID uint, ownerKind string, ownerID uint) (*models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	SaveGrading(ctx context.Context, submissionID uint, expectedVersion uint, update GradingUpdate) error
	Stamp(ctx context.Context, learnerID uint, teamID *uint) (ProgressStamp, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Grades", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("evaluation_criterion_id ASC")
		}).
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Latest(ctx context.Context, targetID uint, ownerKind string, ownerID uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Preload("Grades").
		Where("target_id = ?", targetID).
		Where("owner_kind = ?", ownerKind).
		Where("owner_id = ?", ownerID).
		Where("latest = ?", true).
		Order("created_at DESC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &submission, nil
}

// Create supersedes the owner's current live submission and stores the new one as latest.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("target_id = ?", submission.TargetID).
			Where("owner_kind = ?", submission.OwnerKind).
			Where("owner_id = ?", submission.OwnerID).
			Where("latest = ?", true).
			UpdateColumn("latest", false).Error; err != nil {
			return err
		}

		submission.Latest = true
		if submission.Verdict == "" {
			submission.Verdict = models.VerdictReviewing
		}
		if submission.Version == 0 {
			submission.Version = 1
		}
		return tx.Omit("Target", "Grades").Create(submission).Error
	})
}

// SaveGrading replaces the evaluation fields and grades of a submission only if
// it is still the live submission and its version equals expectedVersion.
func (r *submissionRepository) SaveGrading(ctx context.Context, submissionID uint, expectedVersion uint, update GradingUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Where("version = ?", expectedVersion).
			Where("latest = ?", true).
			Updates(map[string]interface{}{
				"verdict":      update.Verdict,
				"evaluator_id": update.EvaluatorID,
				"evaluated_at": update.EvaluatedAt,
				"passed_at":    update.PassedAt,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrConcurrentModification
		}

		if err := tx.Where("submission_id = ?", submissionID).Delete(&models.SubmissionGrade{}).Error; err != nil {
			return err
		}
		if len(update.Grades) == 0 {
			return nil
		}

		grades := make([]models.SubmissionGrade, 0, len(update.Grades))
		for criterionID, grade := range update.Grades {
			grades = append(grades, models.SubmissionGrade{
				SubmissionID:          submissionID,
				EvaluationCriterionID: criterionID,
				Grade:                 grade,
			})
		}
		return tx.Create(&grades).Error
	})
}

func (r *submissionRepository) Stamp(ctx context.Context, learnerID uint, teamID *uint) (ProgressStamp, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})
	if teamID != nil {
		query = query.Where("(owner_kind = ? AND owner_id = ?) OR (owner_kind = ? AND owner_id = ?)",
			models.SubmissionOwnerLearner, learnerID, models.SubmissionOwnerTeam, *teamID)
	} else {
		query = query.Where("owner_kind = ? AND owner_id = ?", models.SubmissionOwnerLearner, learnerID)
	}

	var stamp ProgressStamp
	err := query.Select("COUNT(*) AS count, COALESCE(SUM(version), 0) AS version_sum, COALESCE(MAX(id), 0) AS latest_change").
		Scan(&stamp).Error
	if err != nil {
		return ProgressStamp{}, err
	}
	return stamp, nil
}
