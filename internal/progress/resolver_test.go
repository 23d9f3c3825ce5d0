package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/grading"
)

type fakeSource struct {
	targets     map[uint]Target
	learners    map[uint]Learner
	submissions map[uint]map[Owner]*Submission
	milestones  map[int][]uint
	targetCalls map[uint]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		targets:     map[uint]Target{},
		learners:    map[uint]Learner{},
		submissions: map[uint]map[Owner]*Submission{},
		milestones:  map[int][]uint{},
		targetCalls: map[uint]int{},
	}
}

func (f *fakeSource) Target(_ context.Context, id uint) (Target, error) {
	f.targetCalls[id]++
	target, ok := f.targets[id]
	if !ok {
		return Target{}, apperror.ErrNotFound
	}
	return target, nil
}

func (f *fakeSource) Learner(_ context.Context, id uint) (Learner, error) {
	learner, ok := f.learners[id]
	if !ok {
		return Learner{}, apperror.ErrNotFound
	}
	return learner, nil
}

func (f *fakeSource) LatestSubmission(_ context.Context, targetID uint, owner Owner) (*Submission, error) {
	return f.submissions[targetID][owner], nil
}

func (f *fakeSource) MilestoneTargetsBelow(_ context.Context, _ uint, levelNumber int) ([]uint, error) {
	var ids []uint
	for number, targets := range f.milestones {
		if number < levelNumber {
			ids = append(ids, targets...)
		}
	}
	return ids, nil
}

func (f *fakeSource) submit(targetID uint, owner Owner, verdict grading.Verdict) {
	if f.submissions[targetID] == nil {
		f.submissions[targetID] = map[Owner]*Submission{}
	}
	f.submissions[targetID][owner] = &Submission{ID: targetID*100 + owner.ID, Verdict: verdict}
}

func level(n int) *int {
	return &n
}

func teamID(id uint) *uint {
	return &id
}

const learnerID uint = 7

var learnerOwner = Owner{Kind: OwnerLearner, ID: learnerID}

func baseSource() *fakeSource {
	source := newFakeSource()
	source.learners[learnerID] = Learner{ID: learnerID, CourseID: 1, TeamID: teamID(3), LevelNumber: 2}
	return source
}

func individualTarget(id uint, levelNumber int, prerequisites ...uint) Target {
	return Target{
		ID:              id,
		CourseID:        1,
		Role:            RoleIndividual,
		Submittability:  SubmittabilityResubmittable,
		LevelNumber:     level(levelNumber),
		PrerequisiteIDs: prerequisites,
	}
}

func resolve(t *testing.T, source Source, targetID uint) Status {
	t.Helper()
	status, err := NewResolver(source).Resolve(context.Background(), targetID, learnerID)
	require.NoError(t, err)
	return status
}

func TestResolvePendingWithoutSubmission(t *testing.T) {
	source := baseSource()
	source.targets[1] = individualTarget(1, 1)

	require.Equal(t, StatusPending, resolve(t, source, 1))
}

func TestResolveVerdictMapping(t *testing.T) {
	cases := map[grading.Verdict]Status{
		grading.VerdictReviewing: StatusSubmitted,
		grading.VerdictFailed:    StatusNeedsImprovement,
		grading.VerdictPassed:    StatusComplete,
	}
	for verdict, expected := range cases {
		source := baseSource()
		source.targets[1] = individualTarget(1, 1)
		source.submit(1, learnerOwner, verdict)

		require.Equal(t, expected, resolve(t, source, 1), "verdict %s", verdict)
	}
}

func TestResolveSubmittableOncePassedIsComplete(t *testing.T) {
	source := baseSource()
	target := individualTarget(1, 1)
	target.Submittability = SubmittabilitySubmittableOnce
	source.targets[1] = target
	source.submit(1, learnerOwner, grading.VerdictPassed)

	require.Equal(t, StatusComplete, resolve(t, source, 1))
}

func TestResolveLevelLockWinsOverEverything(t *testing.T) {
	source := baseSource()
	source.targets[1] = individualTarget(1, 1)
	source.targets[2] = individualTarget(2, 3, 1)
	source.submit(1, learnerOwner, grading.VerdictPassed)
	source.submit(2, learnerOwner, grading.VerdictPassed)

	require.Equal(t, StatusLevelLocked, resolve(t, source, 2))
}

func TestResolvePendingMilestoneBeforePrerequisites(t *testing.T) {
	source := baseSource()
	source.targets[10] = individualTarget(10, 1)
	source.targets[1] = individualTarget(1, 2)
	source.targets[2] = individualTarget(2, 2, 1)
	source.milestones[1] = []uint{10}
	source.submit(1, learnerOwner, grading.VerdictPassed)

	require.Equal(t, StatusPendingMilestone, resolve(t, source, 2))

	source.submit(10, learnerOwner, grading.VerdictPassed)
	require.Equal(t, StatusPending, resolve(t, source, 2))
}

func TestResolveMilestoneOnSameLevelDoesNotGate(t *testing.T) {
	source := baseSource()
	source.targets[10] = individualTarget(10, 2)
	source.targets[1] = individualTarget(1, 2)
	source.milestones[2] = []uint{10}

	require.Equal(t, StatusPending, resolve(t, source, 1))
}

func TestResolveIncompletePrerequisiteIsUnavailable(t *testing.T) {
	source := baseSource()
	source.targets[1] = individualTarget(1, 1)
	source.targets[2] = individualTarget(2, 1, 1)
	source.submit(1, learnerOwner, grading.VerdictFailed)

	require.Equal(t, StatusUnavailable, resolve(t, source, 2))

	source.submit(1, learnerOwner, grading.VerdictPassed)
	require.Equal(t, StatusPending, resolve(t, source, 2))
}

func TestResolveNotSubmittableWithoutSubmission(t *testing.T) {
	source := baseSource()
	target := individualTarget(1, 1)
	target.Submittability = SubmittabilityNotSubmittable
	source.targets[1] = target

	require.Equal(t, StatusUnavailable, resolve(t, source, 1))

	source.submit(1, learnerOwner, grading.VerdictPassed)
	require.Equal(t, StatusComplete, resolve(t, source, 1))
}

func TestResolveAutoVerifyCompletesOnAnySubmission(t *testing.T) {
	source := baseSource()
	target := individualTarget(1, 1)
	target.Submittability = SubmittabilityAutoVerify
	source.targets[1] = target

	require.Equal(t, StatusPending, resolve(t, source, 1))

	source.submit(1, learnerOwner, grading.VerdictReviewing)
	require.Equal(t, StatusComplete, resolve(t, source, 1))
}

func TestResolveTeamTargetUsesTeamSubmission(t *testing.T) {
	source := baseSource()
	target := individualTarget(1, 1)
	target.Role = RoleTeam
	source.targets[1] = target
	source.submit(1, Owner{Kind: OwnerTeam, ID: 3}, grading.VerdictPassed)

	require.Equal(t, StatusComplete, resolve(t, source, 1))
}

func TestResolveTeamTargetWithoutTeamIsNotAccepted(t *testing.T) {
	source := baseSource()
	learner := source.learners[learnerID]
	learner.TeamID = nil
	source.learners[learnerID] = learner
	target := individualTarget(1, 1)
	target.Role = RoleTeam
	source.targets[1] = target

	require.Equal(t, StatusNotAccepted, resolve(t, source, 1))
}

func TestResolveOtherCourseIsNotAccepted(t *testing.T) {
	source := baseSource()
	target := individualTarget(1, 1)
	target.CourseID = 99
	source.targets[1] = target

	require.Equal(t, StatusNotAccepted, resolve(t, source, 1))
}

func TestResolveSystemTargetSkipsLevelChecks(t *testing.T) {
	source := baseSource()
	source.targets[1] = Target{ID: 1, Role: RoleIndividual, Submittability: SubmittabilityResubmittable}
	source.milestones[1] = []uint{10}
	source.targets[10] = individualTarget(10, 1)

	require.Equal(t, StatusPending, resolve(t, source, 1))
}

func TestResolveManyMemoizesSharedPrerequisites(t *testing.T) {
	source := baseSource()
	source.targets[1] = individualTarget(1, 1)
	source.targets[2] = individualTarget(2, 1, 1)
	source.targets[3] = individualTarget(3, 1, 1, 2)
	source.submit(1, learnerOwner, grading.VerdictPassed)
	source.submit(2, learnerOwner, grading.VerdictPassed)

	statuses, err := NewResolver(source).ResolveMany(context.Background(), learnerID, []uint{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, StatusComplete, statuses[1])
	require.Equal(t, StatusComplete, statuses[2])
	require.Equal(t, StatusPending, statuses[3])
	require.Equal(t, 1, source.targetCalls[1])
}

func TestResolveDetectsCorruptedCycle(t *testing.T) {
	source := baseSource()
	source.targets[1] = individualTarget(1, 1, 2)
	source.targets[2] = individualTarget(2, 1, 1)

	_, err := NewResolver(source).Resolve(context.Background(), 1, learnerID)
	require.Error(t, err)
	require.True(t, errors.Is(err, apperror.ErrPrerequisiteCycle))
}

func TestResolveMilestoneWaitingOnHigherLevelTarget(t *testing.T) {
	source := baseSource()
	// Milestone 1 on level 1 requires target 2, which sits behind that milestone on level 2.
	source.targets[1] = individualTarget(1, 1, 2)
	source.targets[2] = individualTarget(2, 2)
	source.milestones[1] = []uint{1}
	source.submit(2, learnerOwner, grading.VerdictPassed)

	require.Equal(t, StatusPendingMilestone, resolve(t, source, 2))
	require.Equal(t, StatusUnavailable, resolve(t, source, 1))

	statuses, err := NewResolver(source).ResolveMany(context.Background(), learnerID, []uint{2, 1})
	require.NoError(t, err)
	require.Equal(t, StatusPendingMilestone, statuses[2])
	require.Equal(t, StatusUnavailable, statuses[1])
}

func TestResolveMissingTargetIsNotFound(t *testing.T) {
	source := baseSource()

	_, err := NewResolver(source).Resolve(context.Background(), 404, learnerID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUnsubmittableGroup(t *testing.T) {
	require.True(t, StatusUnavailable.Unsubmittable())
	require.True(t, StatusLevelLocked.Unsubmittable())
	require.True(t, StatusPendingMilestone.Unsubmittable())
	require.False(t, StatusPending.Unsubmittable())
	require.False(t, StatusNeedsImprovement.Unsubmittable())
}
