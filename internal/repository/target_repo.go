package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/models"
)

// TargetRepository persists target configuration, rubrics and the prerequisite graph.
type TargetRepository interface {
	GetByID(ctx context.Context, id uint) (models.Target, error)
	GetGroup(ctx context.Context, id uint) (models.TargetGroup, error)
	Create(ctx context.Context, target *models.Target, criterionIDs []uint) error
	Update(ctx context.Context, target *models.Target, criterionIDs []uint) error
	KeyTaken(ctx context.Context, key string, excludeID uint) (bool, error)
	CriteriaInCourse(ctx context.Context, courseID uint, criterionIDs []uint) (int64, error)
	PrerequisiteEdges(ctx context.Context, courseID uint) ([]models.TargetPrerequisite, error)
	AddPrerequisite(ctx context.Context, courseID uint, edge models.TargetPrerequisite, guard func([]models.TargetPrerequisite) error) error
	MilestoneTargetIDsBelow(ctx context.Context, courseID uint, levelNumber int) ([]uint, error)
}

const targetCriteriaTable = "target_evaluation_criteria"

type targetRepository struct {
	db *gorm.DB
}

// NewTargetRepository instantiates a GORM-backed repository.
func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) GetByID(ctx context.Context, id uint) (models.Target, error) {
	var target models.Target
	if err := r.db.WithContext(ctx).
		Preload("TargetGroup.Level").
		Preload("EvaluationCriteria", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("evaluation_criteria.id ASC")
		}).
		Preload("Prerequisites").
		First(&target, id).Error; err != nil {
		return models.Target{}, err
	}

	return target, nil
}

func (r *targetRepository) GetGroup(ctx context.Context, id uint) (models.TargetGroup, error) {
	var group models.TargetGroup
	if err := r.db.WithContext(ctx).Preload("Level").First(&group, id).Error; err != nil {
		return models.TargetGroup{}, err
	}
	return group, nil
}

func (r *targetRepository) Create(ctx context.Context, target *models.Target, criterionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("EvaluationCriteria", "Prerequisites", "TargetGroup").Create(target).Error; err != nil {
			return err
		}
		if err := replaceCriteria(tx, target, criterionIDs); err != nil {
			return err
		}
		return bumpConfigVersion(tx, target.CourseID)
	})
}

func (r *targetRepository) Update(ctx context.Context, target *models.Target, criterionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("EvaluationCriteria", "Prerequisites", "TargetGroup").Save(target).Error; err != nil {
			return err
		}
		if err := replaceCriteria(tx, target, criterionIDs); err != nil {
			return err
		}
		return bumpConfigVersion(tx, target.CourseID)
	})
}

func (r *targetRepository) KeyTaken(ctx context.Context, key string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Target{}).Where(map[string]interface{}{"key": key})
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *targetRepository) CriteriaInCourse(ctx context.Context, courseID uint, criterionIDs []uint) (int64, error) {
	if len(criterionIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EvaluationCriterion{}).
		Where("course_id = ?", courseID).
		Where("id IN ?", criterionIDs).
		Count(&count).Error
	return count, err
}

func (r *targetRepository) PrerequisiteEdges(ctx context.Context, courseID uint) ([]models.TargetPrerequisite, error) {
	return prerequisiteEdges(r.db.WithContext(ctx), courseID)
}

func (r *targetRepository) AddPrerequisite(ctx context.Context, courseID uint, edge models.TargetPrerequisite, guard func([]models.TargetPrerequisite) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges, err := prerequisiteEdges(tx, courseID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(edges); err != nil {
				return err
			}
		}
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		return bumpConfigVersion(tx, courseID)
	})
}

func (r *targetRepository) MilestoneTargetIDsBelow(ctx context.Context, courseID uint, levelNumber int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Target{}).
		Joins("JOIN target_groups ON target_groups.id = targets.target_group_id").
		Joins("JOIN levels ON levels.id = target_groups.level_id").
		Where("levels.course_id = ?", courseID).
		Where("levels.number < ?", levelNumber).
		Where("target_groups.milestone = ?", true).
		Where("targets.archived = ?", false).
		Order("targets.id ASC").
		Pluck("targets.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func prerequisiteEdges(db *gorm.DB, courseID uint) ([]models.TargetPrerequisite, error) {
	var edges []models.TargetPrerequisite
	err := db.Model(&models.TargetPrerequisite{}).
		Joins("JOIN targets ON targets.id = target_prerequisites.target_id").
		Where("targets.course_id = ?", courseID).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func replaceCriteria(tx *gorm.DB, target *models.Target, criterionIDs []uint) error {
	if err := tx.Exec("DELETE FROM "+targetCriteriaTable+" WHERE target_id = ?", target.ID).Error; err != nil {
		return err
	}
	if len(criterionIDs) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(criterionIDs))
	for _, id := range criterionIDs {
		rows = append(rows, map[string]interface{}{
			"target_id":               target.ID,
			"evaluation_criterion_id": id,
		})
	}
	return tx.Table(targetCriteriaTable).Create(&rows).Error
}

func bumpConfigVersion(tx *gorm.DB, courseID uint) error {
	return tx.Model(&models.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("config_version", gorm.Expr("config_version + 1")).Error
}
