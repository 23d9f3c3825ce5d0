package models

import "time"

// Course owns a curriculum of levels and the grading scale shared by its criteria.
type Course struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:255;not null" json:"name"`
	MaxGrade  int    `gorm:"not null;default:2" json:"max_grade"`
	PassGrade int    `gorm:"not null;default:0" json:"pass_grade"`
	// ConfigVersion is bumped on every target, rubric or prerequisite change.
	ConfigVersion uint      `gorm:"not null;default:0" json:"config_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Level is one ordered step of a course curriculum.
type Level struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_levels_course_number" json:"course_id"`
	Number    int       `gorm:"not null;uniqueIndex:idx_levels_course_number" json:"number"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TargetGroup groups a level's targets for display. Every target in a
// milestone group is a milestone target.
type TargetGroup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LevelID   uint      `gorm:"not null;index" json:"level_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	SortIndex int       `gorm:"not null;default:0" json:"sort_index"`
	Milestone bool      `gorm:"not null;default:false" json:"milestone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Level     Level     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"level"`
}

// EvaluationCriterion is one rubric line graded on the course scale.
type EvaluationCriterion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// All lists every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&Course{},
		&Level{},
		&TargetGroup{},
		&EvaluationCriterion{},
		&Target{},
		&TargetPrerequisite{},
		&Team{},
		&Learner{},
		&Submission{},
		&SubmissionGrade{},
		&Feedback{},
		&ActivityLog{},
	}
}
