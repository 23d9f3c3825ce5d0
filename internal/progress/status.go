// Package progress resolves the status of a target for one learner.
//
// Resolution is a pure function of the target configuration, the learner's
// level and team, and the learner's live submissions. Everything is read
// through Source so callers decide where the data lives and how it is cached.
package progress

import "github.com/noah-isme/gema-progress-api/internal/grading"

// Status is the computed, never persisted, state of a target for a learner.
type Status string

const (
	StatusComplete         Status = "complete"
	StatusNeedsImprovement Status = "needs_improvement"
	StatusSubmitted        Status = "submitted"
	StatusPending          Status = "pending"
	StatusUnavailable      Status = "unavailable"
	StatusNotAccepted      Status = "not_accepted"
	StatusLevelLocked      Status = "level_locked"
	StatusPendingMilestone Status = "pending_milestone"
)

// Unsubmittable reports whether the learner cannot submit work for a target in
// this status. The three statuses stay distinct because the remedy differs.
func (s Status) Unsubmittable() bool {
	switch s {
	case StatusUnavailable, StatusLevelLocked, StatusPendingMilestone:
		return true
	default:
		return false
	}
}

// Role says whether a target is completed per learner or per team.
type Role string

const (
	RoleIndividual Role = "individual"
	RoleTeam       Role = "team"
)

// Submittability controls how learners may submit work for a target.
type Submittability string

const (
	SubmittabilityResubmittable   Submittability = "resubmittable"
	SubmittabilitySubmittableOnce Submittability = "submittable_once"
	SubmittabilityNotSubmittable  Submittability = "not_submittable"
	SubmittabilityAutoVerify      Submittability = "auto_verify"
)

// Gradable reports whether submissions for the target are reviewed against a rubric.
func (s Submittability) Gradable() bool {
	return s == SubmittabilityResubmittable || s == SubmittabilitySubmittableOnce
}

// Target is the slice of target configuration the resolver needs.
type Target struct {
	ID             uint
	CourseID       uint
	Role           Role
	Submittability Submittability
	// LevelNumber is nil for system targets outside the curriculum.
	LevelNumber     *int
	PrerequisiteIDs []uint
}

// Learner is the slice of learner state the resolver needs.
type Learner struct {
	ID          uint
	CourseID    uint
	TeamID      *uint
	LevelNumber int
}

// OwnerKind distinguishes individual and team submissions.
type OwnerKind string

const (
	OwnerLearner OwnerKind = "learner"
	OwnerTeam    OwnerKind = "team"
)

// Owner identifies whose submissions count for a target.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

// OwnerFor returns the submission owner for a learner working on target.
// ok is false when a team target is asked about a learner without a team.
func OwnerFor(target Target, learner Learner) (Owner, bool) {
	if target.Role == RoleTeam {
		if learner.TeamID == nil {
			return Owner{}, false
		}
		return Owner{Kind: OwnerTeam, ID: *learner.TeamID}, true
	}
	return Owner{Kind: OwnerLearner, ID: learner.ID}, true
}

// Submission is the live submission view the resolver reads.
type Submission struct {
	ID      uint
	Verdict grading.Verdict
}
