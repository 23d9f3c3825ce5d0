package models

import "time"

// Submission owner kinds.
const (
	SubmissionOwnerLearner = "learner"
	SubmissionOwnerTeam    = "team"
)

// Stored grading verdicts.
const (
	VerdictReviewing = "reviewing"
	VerdictFailed    = "failed"
	VerdictPassed    = "passed"
)

// Submission is one attempt at a target by a learner or a team. Only the
// latest submission per target and owner is live; older ones are kept as history.
type Submission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TargetID    uint       `gorm:"not null;index:idx_submissions_live" json:"target_id"`
	OwnerKind   string     `gorm:"size:16;not null;index:idx_submissions_live" json:"owner_kind"`
	OwnerID     uint       `gorm:"not null;index:idx_submissions_live" json:"owner_id"`
	LearnerID   uint       `gorm:"not null" json:"learner_id"`
	Description string     `gorm:"type:text" json:"description"`
	Latest      bool       `gorm:"not null;default:false;index:idx_submissions_live" json:"latest"`
	Verdict     string     `gorm:"size:16;not null;default:'reviewing'" json:"verdict"`
	EvaluatorID *uint      `json:"evaluator_id"`
	EvaluatedAt *time.Time `json:"evaluated_at"`
	PassedAt    *time.Time `json:"passed_at"`
	// Version is incremented on every grading write; stale writers get a conflict.
	Version   uint              `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Target    Target            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Grades    []SubmissionGrade `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"grades"`
}

// GradeMap returns the criterion grades keyed by criterion id.
func (s Submission) GradeMap() map[uint]int {
	grades := make(map[uint]int, len(s.Grades))
	for _, grade := range s.Grades {
		grades[grade.EvaluationCriterionID] = grade.Grade
	}
	return grades
}

// IsEvaluated reports whether a reviewer has graded at least one criterion.
func (s Submission) IsEvaluated() bool {
	return s.EvaluatedAt != nil
}

// SubmissionGrade is the grade given to one rubric criterion of a submission.
type SubmissionGrade struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	SubmissionID          uint      `gorm:"not null;uniqueIndex:idx_submission_grades_criterion" json:"submission_id"`
	EvaluationCriterionID uint      `gorm:"not null;uniqueIndex:idx_submission_grades_criterion" json:"evaluation_criterion_id"`
	Grade                 int       `gorm:"not null" json:"grade"`
	CreatedAt             time.Time `json:"created_at"`
}

// Feedback is an append-only note from a coach on a submission. It never
// affects grading.
type Feedback struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;index" json:"submission_id"`
	FacultyID    uint       `gorm:"not null" json:"faculty_id"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	CreatedAt    time.Time  `json:"created_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
