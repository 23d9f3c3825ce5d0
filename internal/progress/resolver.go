package progress

import (
	"context"
	"fmt"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/grading"
)

// Source supplies the read models the resolver consults.
type Source interface {
	Target(ctx context.Context, id uint) (Target, error)
	Learner(ctx context.Context, id uint) (Learner, error)
	// LatestSubmission returns nil when the owner has no live submission.
	LatestSubmission(ctx context.Context, targetID uint, owner Owner) (*Submission, error)
	// MilestoneTargetsBelow lists milestone targets on levels numbered strictly below levelNumber.
	MilestoneTargetsBelow(ctx context.Context, courseID uint, levelNumber int) ([]uint, error)
}

// Resolver computes target statuses. It holds no state between calls and is
// safe for concurrent use.
type Resolver struct {
	source Source
}

// NewResolver builds a resolver over source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the status of targetID for learnerID.
func (r *Resolver) Resolve(ctx context.Context, targetID, learnerID uint) (Status, error) {
	statuses, err := r.ResolveMany(ctx, learnerID, []uint{targetID})
	if err != nil {
		return "", err
	}
	return statuses[targetID], nil
}

// ResolveMany resolves several targets for one learner, sharing the work done
// on common prerequisites and milestones.
func (r *Resolver) ResolveMany(ctx context.Context, learnerID uint, targetIDs []uint) (map[uint]Status, error) {
	learner, err := r.source.Learner(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	run := &resolution{
		source:   r.source,
		learner:  learner,
		resolved: make(map[uint]Status),
		visiting: make(map[uint]int),
	}

	out := make(map[uint]Status, len(targetIDs))
	for _, id := range targetIDs {
		status, err := run.status(ctx, id, false)
		if err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, nil
}

// resolution memoizes statuses for a single Resolve call.
type resolution struct {
	source   Source
	learner  Learner
	resolved map[uint]Status
	// visiting maps each target on the current path to its index in gated.
	visiting map[uint]int
	// gated records, per path entry, whether it was reached through a milestone gate.
	gated []bool
}

func (r *resolution) status(ctx context.Context, targetID uint, viaMilestone bool) (Status, error) {
	if status, ok := r.resolved[targetID]; ok {
		return status, nil
	}
	if index, ok := r.visiting[targetID]; ok {
		// A loop through a milestone gate means the target waits on itself; it
		// cannot be complete yet. Pure prerequisite cycles are rejected when
		// written, so reaching one here means corrupted data.
		if viaMilestone || containsTrue(r.gated[index+1:]) {
			return StatusPendingMilestone, nil
		}
		return "", fmt.Errorf("%w: target %d reached again while resolving", apperror.ErrPrerequisiteCycle, targetID)
	}
	r.visiting[targetID] = len(r.gated)
	r.gated = append(r.gated, viaMilestone)
	defer func() {
		delete(r.visiting, targetID)
		r.gated = r.gated[:len(r.gated)-1]
	}()

	target, err := r.source.Target(ctx, targetID)
	if err != nil {
		return "", err
	}

	status, err := r.compute(ctx, target)
	if err != nil {
		return "", err
	}

	r.resolved[targetID] = status
	return status, nil
}

func (r *resolution) compute(ctx context.Context, target Target) (Status, error) {
	if target.CourseID != 0 && target.CourseID != r.learner.CourseID {
		return StatusNotAccepted, nil
	}
	owner, ok := OwnerFor(target, r.learner)
	if !ok {
		return StatusNotAccepted, nil
	}

	if target.LevelNumber != nil {
		if *target.LevelNumber > r.learner.LevelNumber {
			return StatusLevelLocked, nil
		}

		pending, err := r.milestonePending(ctx, target)
		if err != nil {
			return "", err
		}
		if pending {
			return StatusPendingMilestone, nil
		}
	}

	var (
		submission *Submission
		fetched    bool
		err        error
	)
	if target.Submittability == SubmittabilityNotSubmittable {
		submission, err = r.source.LatestSubmission(ctx, target.ID, owner)
		if err != nil {
			return "", err
		}
		if submission == nil {
			return StatusUnavailable, nil
		}
		fetched = true
	}

	for _, prerequisiteID := range target.PrerequisiteIDs {
		status, err := r.status(ctx, prerequisiteID, false)
		if err != nil {
			return "", err
		}
		if status != StatusComplete {
			return StatusUnavailable, nil
		}
	}

	if !fetched {
		submission, err = r.source.LatestSubmission(ctx, target.ID, owner)
		if err != nil {
			return "", err
		}
	}

	return submissionStatus(target, submission), nil
}

func (r *resolution) milestonePending(ctx context.Context, target Target) (bool, error) {
	milestones, err := r.source.MilestoneTargetsBelow(ctx, target.CourseID, *target.LevelNumber)
	if err != nil {
		return false, err
	}
	for _, milestoneID := range milestones {
		status, err := r.status(ctx, milestoneID, true)
		if err != nil {
			return false, err
		}
		if status != StatusComplete {
			return true, nil
		}
	}
	return false, nil
}

func containsTrue(values []bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}

func submissionStatus(target Target, submission *Submission) Status {
	if submission == nil {
		return StatusPending
	}
	if target.Submittability == SubmittabilityAutoVerify {
		return StatusComplete
	}

	switch submission.Verdict {
	case grading.VerdictPassed:
		return StatusComplete
	case grading.VerdictFailed:
		return StatusNeedsImprovement
	default:
		return StatusSubmitted
	}
}
