package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
)

var (
	// ErrTargetNotFound indicates the target does not exist.
	ErrTargetNotFound = fmt.Errorf("target %w", apperror.ErrNotFound)
	// ErrLearnerNotFound indicates the learner does not exist.
	ErrLearnerNotFound = fmt.Errorf("learner %w", apperror.ErrNotFound)
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = fmt.Errorf("submission %w", apperror.ErrNotFound)
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = fmt.Errorf("course %w", apperror.ErrNotFound)

	// ErrTargetNotGradable is returned when grading a target without a rubric.
	ErrTargetNotGradable = errors.New("target is not graded against a rubric")
	// ErrCriterionNotInRubric is returned for grades on criteria the target does not use.
	ErrCriterionNotInRubric = errors.New("criterion is not part of the target rubric")
	// ErrInvalidGrade is returned for grades outside the course scale.
	ErrInvalidGrade = errors.New("grade is outside the course scale")
	// ErrSubmissionSuperseded is returned when writing to a submission that is no longer live.
	ErrSubmissionSuperseded = errors.New("submission has been superseded")
	// ErrTargetNotSubmittable is returned when the learner cannot submit for the target right now.
	ErrTargetNotSubmittable = errors.New("target cannot be submitted")
	// ErrResubmissionNotAllowed is returned for a new attempt at a passed submittable-once target.
	ErrResubmissionNotAllowed = errors.New("target can only be completed once")
	// ErrEmptyFeedback is returned when a note is empty after sanitizing.
	ErrEmptyFeedback = errors.New("feedback body is empty")
)
