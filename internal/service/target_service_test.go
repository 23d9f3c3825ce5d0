package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

func TestTargetServiceCreateAndUpdate(t *testing.T) {
	f := newProgressFixture(t, nil)
	ctx := context.Background()

	created := f.createTarget(t, func(req *dto.TargetUpsertRequest) {
		req.Key = stringPtr(models.TargetKeyScreening)
		req.CallToAction = "Submit"
	})
	require.NotZero(t, created.ID)
	require.Equal(t, []uint{f.criteria[0].ID, f.criteria[1].ID}, created.CriterionIDs)
	require.NotNil(t, created.LevelNumber)
	require.Equal(t, 2, *created.LevelNumber)

	req := f.targetRequest()
	req.Key = stringPtr(models.TargetKeyScreening)
	req.Title = "Ship a better landing page"
	req.CriterionIDs = []uint{f.criteria[1].ID}
	updated, err := f.targets.Update(ctx, created.ID, req, f.faculty)
	require.NoError(t, err)
	require.Equal(t, "Ship a better landing page", updated.Title)
	require.Equal(t, []uint{f.criteria[1].ID}, updated.CriterionIDs)

	var course models.Course
	require.NoError(t, f.db.First(&course, f.course.ID).Error)
	require.EqualValues(t, 2, course.ConfigVersion)

	logs, total, err := f.activityRepo.List(ctx, repository.ActivityLogFilter{EntityType: ActivityEntityTarget, EntityID: &created.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, models.ActivityTargetConfigured, logs[0].Action)

	_, err = f.targets.Update(ctx, 9999, req, f.faculty)
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestTargetServiceReportsEveryBrokenRule(t *testing.T) {
	f := newProgressFixture(t, nil)

	req := f.targetRequest()
	req.Title = " "
	req.CriterionIDs = nil
	req.SessionAt = timePtr()
	req.Key = stringPtr("unknown")

	_, err := f.targets.Create(context.Background(), req, f.faculty)
	list, ok := apperror.AsConfiguration(err)
	require.True(t, ok)

	fields := list.Fields()
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "criterion_ids")
	require.Contains(t, fields, "base")
	require.Contains(t, fields, "key")
}

func TestTargetServiceKeyIsUnique(t *testing.T) {
	f := newProgressFixture(t, nil)
	f.createTarget(t, func(req *dto.TargetUpsertRequest) {
		req.Key = stringPtr(models.TargetKeyR1Task)
	})

	req := f.targetRequest()
	req.Key = stringPtr(models.TargetKeyR1Task)
	_, err := f.targets.Create(context.Background(), req, f.faculty)
	list, ok := apperror.AsConfiguration(err)
	require.True(t, ok)
	require.Equal(t, []string{"is already used by another target"}, list.Fields()["key"])
}

func TestTargetServiceRejectsUnknownCourse(t *testing.T) {
	f := newProgressFixture(t, nil)
	req := f.targetRequest()
	req.CourseID = 9999

	_, err := f.targets.Create(context.Background(), req, f.faculty)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestTargetServicePrerequisiteCycles(t *testing.T) {
	f := newProgressFixture(t, nil)
	ctx := context.Background()

	a := f.createTarget(t, nil)
	b := f.createTarget(t, nil)
	c := f.createTarget(t, nil)

	withB, err := f.targets.AddPrerequisite(ctx, b.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: a.ID}, f.faculty)
	require.NoError(t, err)
	require.Equal(t, []uint{a.ID}, withB.PrerequisiteIDs)

	_, err = f.targets.AddPrerequisite(ctx, c.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: b.ID}, f.faculty)
	require.NoError(t, err)

	_, err = f.targets.AddPrerequisite(ctx, a.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: c.ID}, f.faculty)
	require.ErrorIs(t, err, apperror.ErrPrerequisiteCycle)
	_, ok := apperror.AsConfiguration(err)
	require.True(t, ok)

	_, err = f.targets.AddPrerequisite(ctx, a.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: a.ID}, f.faculty)
	require.ErrorIs(t, err, apperror.ErrPrerequisiteCycle)

	again, err := f.targets.AddPrerequisite(ctx, b.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: a.ID}, f.faculty)
	require.NoError(t, err)
	require.Equal(t, []uint{a.ID}, again.PrerequisiteIDs)

	reloaded, err := f.targets.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, reloaded.PrerequisiteIDs)
}

func TestTargetServicePrerequisiteMustShareCourse(t *testing.T) {
	f := newProgressFixture(t, nil)
	other := models.Course{Name: "Other", MaxGrade: 2}
	require.NoError(t, f.db.Create(&other).Error)
	foreign := models.Target{
		CourseID:       other.ID,
		Title:          "Elsewhere",
		Role:           models.TargetRoleIndividual,
		Submittability: models.SubmittabilityAutoVerify,
		DaysToComplete: intPtr(1),
	}
	require.NoError(t, f.db.Create(&foreign).Error)

	target := f.createTarget(t, nil)
	_, err := f.targets.AddPrerequisite(context.Background(), target.ID, dto.PrerequisiteCreateRequest{PrerequisiteID: foreign.ID}, f.faculty)
	list, ok := apperror.AsConfiguration(err)
	require.True(t, ok)
	require.Contains(t, list.Fields(), "prerequisites")
}
