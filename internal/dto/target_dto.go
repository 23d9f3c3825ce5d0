package dto

import (
	"time"

	"github.com/noah-isme/gema-progress-api/internal/models"
)

// TargetUpsertRequest describes a target definition written by administrators.
// Cross-field rules are checked by the target configuration pass, not by tags.
type TargetUpsertRequest struct {
	CourseID       uint       `json:"course_id" validate:"required,gt=0"`
	TargetGroupID  *uint      `json:"target_group_id"`
	Key            *string    `json:"key"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Role           string     `json:"role"`
	Submittability string     `json:"submittability"`
	CallToAction   string     `json:"call_to_action"`
	DaysToComplete *int       `json:"days_to_complete"`
	SessionAt      *time.Time `json:"session_at"`
	SessionBy      *string    `json:"session_by"`
	FacultyID      *uint      `json:"faculty_id"`
	Archived       bool       `json:"archived"`
	CriterionIDs   []uint     `json:"criterion_ids" validate:"omitempty,dive,gt=0"`
}

// PrerequisiteCreateRequest links a prerequisite to a target.
type PrerequisiteCreateRequest struct {
	PrerequisiteID uint `json:"prerequisite_id" validate:"required,gt=0"`
}

// TargetResponse serializes a target with its rubric and prerequisites.
type TargetResponse struct {
	ID              uint       `json:"id"`
	CourseID        uint       `json:"course_id"`
	TargetGroupID   *uint      `json:"target_group_id"`
	LevelNumber     *int       `json:"level_number"`
	Key             *string    `json:"key"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Role            string     `json:"role"`
	Submittability  string     `json:"submittability"`
	CallToAction    string     `json:"call_to_action"`
	DaysToComplete  *int       `json:"days_to_complete"`
	SessionAt       *time.Time `json:"session_at"`
	SessionBy       *string    `json:"session_by"`
	FacultyID       *uint      `json:"faculty_id"`
	Archived        bool       `json:"archived"`
	CriterionIDs    []uint     `json:"criterion_ids"`
	PrerequisiteIDs []uint     `json:"prerequisite_ids"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TargetStatusResponse reports the computed status of a target for a learner.
type TargetStatusResponse struct {
	TargetID    uint   `json:"target_id"`
	LearnerID   uint   `json:"learner_id"`
	Status      string `json:"status"`
	Submittable bool   `json:"submittable"`
	CacheHit    bool   `json:"cache_hit"`
}

// NewTargetResponse converts a Target model into a DTO.
func NewTargetResponse(model models.Target) TargetResponse {
	return TargetResponse{
		ID:              model.ID,
		CourseID:        model.CourseID,
		TargetGroupID:   model.TargetGroupID,
		LevelNumber:     model.LevelNumber(),
		Key:             model.Key,
		Title:           model.Title,
		Description:     model.Description,
		Role:            model.Role,
		Submittability:  model.Submittability,
		CallToAction:    model.CallToAction,
		DaysToComplete:  model.DaysToComplete,
		SessionAt:       model.SessionAt,
		SessionBy:       model.SessionBy,
		FacultyID:       model.FacultyID,
		Archived:        model.Archived,
		CriterionIDs:    model.CriterionIDs(),
		PrerequisiteIDs: model.PrerequisiteIDs(),
		UpdatedAt:       model.UpdatedAt,
	}
}
