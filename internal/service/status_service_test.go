package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/models"
)

func TestStatusServiceLevelAndMilestoneGates(t *testing.T) {
	f := newProgressFixture(t, nil)
	f.addLevel(t, 3)

	ahead := f.createTarget(t, func(req *dto.TargetUpsertRequest) {
		req.TargetGroupID = uintPtr(f.groups[3].ID)
	})
	require.Equal(t, "level_locked", f.status(t, ahead.ID))

	current := f.createTarget(t, nil)
	require.Equal(t, "pending", f.status(t, current.ID))

	milestone := f.createTarget(t, func(req *dto.TargetUpsertRequest) {
		req.TargetGroupID = uintPtr(f.groups[-1].ID)
		req.Title = "Level one demo day"
	})
	require.Equal(t, "pending", f.status(t, milestone.ID))
	require.Equal(t, "pending_milestone", f.status(t, current.ID))

	f.complete(t, milestone.ID)
	require.Equal(t, "complete", f.status(t, milestone.ID))
	require.Equal(t, "pending", f.status(t, current.ID))
}

func TestStatusServicePrerequisites(t *testing.T) {
	f := newProgressFixture(t, nil)
	ctx := context.Background()

	first := f.createTarget(t, nil)
	second := f.createTarget(t, nil)
	_, err := f.targets.AddPrerequisite(ctx, second.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: first.ID}, f.faculty)
	require.NoError(t, err)

	require.Equal(t, "unavailable", f.status(t, second.ID))

	submission := f.submit(t, first.ID)
	require.Equal(t, "unavailable", f.status(t, second.ID))

	f.commit(t, submission.ID, map[uint]int{f.criteria[0].ID: 2, f.criteria[1].ID: 2})
	require.Equal(t, "pending", f.status(t, second.ID))
}

func TestStatusServiceSessionsAndTeams(t *testing.T) {
	f := newProgressFixture(t, nil)

	session := f.createTarget(t, func(req *dto.TargetUpsertRequest) {
		req.Submittability = models.SubmittabilityNotSubmittable
		req.CriterionIDs = nil
		req.DaysToComplete = nil
		req.SessionAt = timePtr()
		req.FacultyID = nil
		req.SessionBy = stringPtr("Guest founder")
	})
	resolved, err := f.statuses.Resolve(context.Background(), session.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "unavailable", resolved.Status)
	require.False(t, resolved.Submittable)

	teamTarget := f.createTarget(t, func(req *dto.TargetUpsertRequest) {
		req.Role = models.TargetRoleTeam
	})
	require.Equal(t, "not_accepted", f.status(t, teamTarget.ID))

	team := models.Team{CourseID: f.course.ID, Name: "Rockets"}
	require.NoError(t, f.db.Create(&team).Error)
	require.NoError(t, f.db.Model(&f.learner).Update("team_id", team.ID).Error)
	f.learner.TeamID = &team.ID

	require.Equal(t, "pending", f.status(t, teamTarget.ID))
	submission := f.submit(t, teamTarget.ID)
	require.Equal(t, models.SubmissionOwnerTeam, submission.OwnerKind)
	require.Equal(t, team.ID, submission.OwnerID)
	require.Equal(t, "submitted", f.status(t, teamTarget.ID))
}

func TestStatusServiceNotFound(t *testing.T) {
	f := newProgressFixture(t, nil)
	target := f.createTarget(t, nil)

	_, err := f.statuses.Resolve(context.Background(), 9999, f.learner.ID)
	require.ErrorIs(t, err, ErrTargetNotFound)

	_, err = f.statuses.Resolve(context.Background(), target.ID, 9999)
	require.ErrorIs(t, err, ErrLearnerNotFound)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestStatusServiceCacheFollowsProgress(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	f := newProgressFixture(t, cache)
	ctx := context.Background()
	target := f.createTarget(t, nil)

	first, err := f.statuses.Resolve(ctx, target.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "pending", first.Status)
	require.False(t, first.CacheHit)

	again, err := f.statuses.Resolve(ctx, target.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "pending", again.Status)
	require.True(t, again.CacheHit)
	require.Len(t, mini.Keys(), 1)

	submission := f.submit(t, target.ID)
	afterSubmit, err := f.statuses.Resolve(ctx, target.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "submitted", afterSubmit.Status)
	require.False(t, afterSubmit.CacheHit)

	f.commit(t, submission.ID, map[uint]int{f.criteria[0].ID: 2, f.criteria[1].ID: 2})
	afterGrade, err := f.statuses.Resolve(ctx, target.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "complete", afterGrade.Status)
	require.False(t, afterGrade.CacheHit)

	_, err = f.grading.Undo(ctx, submission.ID, 0, f.faculty)
	require.NoError(t, err)
	afterUndo, err := f.statuses.Resolve(ctx, target.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "submitted", afterUndo.Status)
	require.False(t, afterUndo.CacheHit)
}

func TestStatusServiceCacheFollowsConfiguration(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	f := newProgressFixture(t, cache)
	ctx := context.Background()

	first := f.createTarget(t, nil)
	second := f.createTarget(t, nil)
	require.Equal(t, "pending", f.status(t, second.ID))

	_, err = f.targets.AddPrerequisite(ctx, second.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: first.ID}, f.faculty)
	require.NoError(t, err)

	resolved, err := f.statuses.Resolve(ctx, second.ID, f.learner.ID)
	require.NoError(t, err)
	require.Equal(t, "unavailable", resolved.Status)
	require.False(t, resolved.CacheHit)
}
