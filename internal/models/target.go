package models

import "time"

// Target roles.
const (
	TargetRoleIndividual = "individual"
	TargetRoleTeam       = "team"
)

// Target submittability values.
const (
	SubmittabilityResubmittable   = "resubmittable"
	SubmittabilitySubmittableOnce = "submittable_once"
	SubmittabilityNotSubmittable  = "not_submittable"
	SubmittabilityAutoVerify      = "auto_verify"
)

// Keys reserved for targets the admissions flow looks up by name.
const (
	TargetKeyScreening          = "screening"
	TargetKeyCofounderAddition  = "cofounder_addition"
	TargetKeyR1Task             = "r1_task"
	TargetKeyR1ShowPreviousWork = "r1_show_previous_work"
	TargetKeyR2Task             = "r2_task"
	TargetKeyAttendInterview    = "attend_interview"
	TargetKeyFeePayment         = "initial_fee_payment"
)

// TargetKeys lists every valid target key.
func TargetKeys() []string {
	return []string{
		TargetKeyScreening,
		TargetKeyCofounderAddition,
		TargetKeyR1Task,
		TargetKeyR1ShowPreviousWork,
		TargetKeyR2Task,
		TargetKeyAttendInterview,
		TargetKeyFeePayment,
	}
}

// Target is a unit of work learners complete individually or as a team.
type Target struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CourseID       uint       `gorm:"not null;index" json:"course_id"`
	TargetGroupID  *uint      `gorm:"index" json:"target_group_id"`
	Key            *string    `gorm:"size:64;uniqueIndex" json:"key"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Role           string     `gorm:"size:32;not null" json:"role"`
	Submittability string     `gorm:"size:32;not null" json:"submittability"`
	CallToAction   string     `gorm:"size:64" json:"call_to_action"`
	DaysToComplete *int       `json:"days_to_complete"`
	SessionAt      *time.Time `json:"session_at"`
	SessionBy      *string    `gorm:"size:255" json:"session_by"`
	FacultyID      *uint      `json:"faculty_id"`
	Archived       bool       `gorm:"not null;default:false" json:"archived"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	TargetGroup        *TargetGroup          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"target_group,omitempty"`
	EvaluationCriteria []EvaluationCriterion `gorm:"many2many:target_evaluation_criteria" json:"evaluation_criteria"`
	Prerequisites      []TargetPrerequisite  `gorm:"foreignKey:TargetID" json:"-"`
}

// IsSession reports whether the target is a scheduled session rather than a
// self-paced target.
func (t Target) IsSession() bool {
	return t.SessionAt != nil
}

// IsGradable reports whether submissions for the target are reviewed against a rubric.
func (t Target) IsGradable() bool {
	return t.Submittability == SubmittabilityResubmittable || t.Submittability == SubmittabilitySubmittableOnce
}

// LevelNumber returns the number of the target's level, or nil for targets
// outside the curriculum. TargetGroup.Level must be preloaded.
func (t Target) LevelNumber() *int {
	if t.TargetGroup == nil || t.TargetGroup.Level.ID == 0 {
		return nil
	}
	number := t.TargetGroup.Level.Number
	return &number
}

// PrerequisiteIDs returns the ids of the targets this one depends on.
func (t Target) PrerequisiteIDs() []uint {
	ids := make([]uint, 0, len(t.Prerequisites))
	for _, edge := range t.Prerequisites {
		ids = append(ids, edge.PrerequisiteTargetID)
	}
	return ids
}

// CriterionIDs returns the rubric criterion ids in rubric order.
func (t Target) CriterionIDs() []uint {
	ids := make([]uint, 0, len(t.EvaluationCriteria))
	for _, criterion := range t.EvaluationCriteria {
		ids = append(ids, criterion.ID)
	}
	return ids
}

// TargetPrerequisite is an edge of the prerequisite graph: TargetID cannot be
// attempted until PrerequisiteTargetID is complete.
type TargetPrerequisite struct {
	TargetID             uint      `gorm:"primaryKey;autoIncrement:false" json:"target_id"`
	PrerequisiteTargetID uint      `gorm:"primaryKey;autoIncrement:false" json:"prerequisite_target_id"`
	CreatedAt            time.Time `json:"created_at"`
}
