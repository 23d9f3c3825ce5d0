// Package grading turns per-criterion rubric grades into a submission verdict.
package grading

import "fmt"

// Verdict is the overall outcome derived from a submission's criterion grades.
type Verdict string

const (
	VerdictReviewing Verdict = "reviewing"
	VerdictFailed    Verdict = "failed"
	VerdictPassed    Verdict = "passed"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictReviewing, VerdictFailed, VerdictPassed:
		return true
	default:
		return false
	}
}

// Scale is a course's numeric grading scale. Grades run from 1 to MaxGrade;
// any grade below PassGrade fails the whole submission.
type Scale struct {
	MaxGrade  int
	PassGrade int
}

// NewScale builds a scale. A zero pass grade defaults to the maximum, which is
// the binary Good/Bad behaviour (1 fails, 2 passes when MaxGrade is 2).
func NewScale(maxGrade, passGrade int) (Scale, error) {
	if maxGrade < 1 {
		return Scale{}, fmt.Errorf("max grade must be positive, got %d", maxGrade)
	}
	if passGrade == 0 {
		passGrade = maxGrade
	}
	if passGrade < 1 || passGrade > maxGrade {
		return Scale{}, fmt.Errorf("pass grade must be within 1..%d, got %d", maxGrade, passGrade)
	}
	return Scale{MaxGrade: maxGrade, PassGrade: passGrade}, nil
}

// BinaryScale is the Good (2) / Bad (1) scale.
func BinaryScale() Scale {
	return Scale{MaxGrade: 2, PassGrade: 2}
}

// InRange reports whether grade is a value the scale accepts.
func (s Scale) InRange(grade int) bool {
	return grade >= 1 && grade <= s.MaxGrade
}

// Failing reports whether grade sits below the pass grade.
func (s Scale) Failing(grade int) bool {
	return grade < s.effectivePassGrade()
}

func (s Scale) effectivePassGrade() int {
	if s.PassGrade == 0 {
		return s.MaxGrade
	}
	return s.PassGrade
}

// Aggregate computes the verdict for the given grades against the rubric.
// rubric lists every criterion on the target; grades holds only the criteria
// graded so far. A single failing grade fails the submission even when other
// criteria are still ungraded.
func Aggregate(rubric []uint, grades map[uint]int, scale Scale) Verdict {
	if len(grades) == 0 {
		return VerdictReviewing
	}

	for _, grade := range grades {
		if scale.Failing(grade) {
			return VerdictFailed
		}
	}

	for _, criterionID := range rubric {
		if _, graded := grades[criterionID]; !graded {
			return VerdictReviewing
		}
	}

	return VerdictPassed
}
