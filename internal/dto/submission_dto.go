package dto

import (
	"time"

	"github.com/noah-isme/gema-progress-api/internal/models"
)

// SubmissionCreateRequest describes a learner's attempt at a target.
type SubmissionCreateRequest struct {
	TargetID    uint   `json:"target_id" validate:"required,gt=0"`
	LearnerID   uint   `json:"learner_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"omitempty,max=10000"`
}

// CriterionGradeRequest grades a single rubric criterion.
type CriterionGradeRequest struct {
	CriterionID uint `json:"criterion_id" validate:"required,gt=0"`
	Grade       int  `json:"grade" validate:"required,gte=1"`
}

// GradeSubmissionRequest commits one or more criterion grades. Version, when
// set, must match the submission version the reviewer last saw.
type GradeSubmissionRequest struct {
	Grades  []CriterionGradeRequest `json:"grades" validate:"required,min=1,dive"`
	Version uint                    `json:"version"`
}

// GradeCardEntry is one rubric line of a submission's grade card.
type GradeCardEntry struct {
	CriterionID uint   `json:"criterion_id"`
	Name        string `json:"name"`
	Grade       *int   `json:"grade"`
	MaxGrade    int    `json:"max_grade"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID          uint             `json:"id"`
	TargetID    uint             `json:"target_id"`
	OwnerKind   string           `json:"owner_kind"`
	OwnerID     uint             `json:"owner_id"`
	LearnerID   uint             `json:"learner_id"`
	Description string           `json:"description"`
	Latest      bool             `json:"latest"`
	Verdict     string           `json:"verdict"`
	EvaluatorID *uint            `json:"evaluator_id"`
	EvaluatedAt *time.Time       `json:"evaluated_at"`
	PassedAt    *time.Time       `json:"passed_at"`
	Version     uint             `json:"version"`
	GradeCard   []GradeCardEntry `json:"grade_card"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO, building the
// grade card from the target rubric.
func NewSubmissionResponse(model models.Submission, rubric []models.EvaluationCriterion, maxGrade int) SubmissionResponse {
	grades := model.GradeMap()
	card := make([]GradeCardEntry, 0, len(rubric))
	for _, criterion := range rubric {
		entry := GradeCardEntry{
			CriterionID: criterion.ID,
			Name:        criterion.Name,
			MaxGrade:    maxGrade,
		}
		if grade, ok := grades[criterion.ID]; ok {
			value := grade
			entry.Grade = &value
		}
		card = append(card, entry)
	}

	return SubmissionResponse{
		ID:          model.ID,
		TargetID:    model.TargetID,
		OwnerKind:   model.OwnerKind,
		OwnerID:     model.OwnerID,
		LearnerID:   model.LearnerID,
		Description: model.Description,
		Latest:      model.Latest,
		Verdict:     model.Verdict,
		EvaluatorID: model.EvaluatorID,
		EvaluatedAt: model.EvaluatedAt,
		PassedAt:    model.PassedAt,
		Version:     model.Version,
		GradeCard:   card,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// FeedbackCreateRequest appends a coach note to a submission.
type FeedbackCreateRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// FeedbackResponse serializes a feedback entry.
type FeedbackResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	FacultyID    uint      `json:"faculty_id"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewFeedbackResponse converts a Feedback model into a DTO.
func NewFeedbackResponse(model models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		FacultyID:    model.FacultyID,
		Body:         model.Body,
		CreatedAt:    model.CreatedAt,
	}
}
