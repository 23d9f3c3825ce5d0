package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/dto"
	"github.com/noah-isme/gema-progress-api/internal/events"
	"github.com/noah-isme/gema-progress-api/internal/grading"
	"github.com/noah-isme/gema-progress-api/internal/models"
	"github.com/noah-isme/gema-progress-api/internal/repository"
)

const testFacultyID uint = 7

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.GradingEvent
}

func (p *recordingPublisher) PublishGrading(_ context.Context, event events.GradingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) recorded() []events.GradingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.GradingEvent(nil), p.events...)
}

// progressFixture is a course with levels 1 and 2, two rubric criteria and a
// learner on level 2, wired to real repositories on an in-memory database.
type progressFixture struct {
	db        *gorm.DB
	course    models.Course
	levels    map[int]models.Level
	groups    map[int]models.TargetGroup
	criteria  []models.EvaluationCriterion
	learner   models.Learner
	faculty   ActivityActor
	publisher *recordingPublisher

	targetRepo     repository.TargetRepository
	submissionRepo repository.SubmissionRepository
	activityRepo   repository.ActivityLogRepository

	targets     TargetService
	statuses    StatusService
	submissions SubmissionService
	grading     GradingService
	feedback    FeedbackService
}

func newProgressFixture(t *testing.T, cache *redis.Client) *progressFixture {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	f := &progressFixture{
		db:        db,
		levels:    map[int]models.Level{},
		groups:    map[int]models.TargetGroup{},
		faculty:   ActivityActor{ID: testFacultyID, Role: "coach"},
		publisher: &recordingPublisher{},
	}

	f.course = models.Course{Name: "Founders", MaxGrade: 2}
	require.NoError(t, db.Create(&f.course).Error)

	for _, name := range []string{"Clarity", "Execution"} {
		criterion := models.EvaluationCriterion{CourseID: f.course.ID, Name: name}
		require.NoError(t, db.Create(&criterion).Error)
		f.criteria = append(f.criteria, criterion)
	}

	f.addLevel(t, 1)
	f.addLevel(t, 2)

	f.learner = models.Learner{
		CourseID: f.course.ID,
		LevelID:  f.levels[2].ID,
		Name:     "Ada",
		Email:    uuid.NewString() + "@example.com",
	}
	require.NoError(t, db.Create(&f.learner).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := testLogger()

	f.targetRepo = repository.NewTargetRepository(db)
	f.submissionRepo = repository.NewSubmissionRepository(db)
	f.activityRepo = repository.NewActivityLogRepository(db)
	learnerRepo := repository.NewLearnerRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	activity := NewActivityService(f.activityRepo, logger)

	f.targets = NewTargetService(f.targetRepo, courseRepo, validate, activity, logger)
	f.statuses = NewStatusService(f.targetRepo, learnerRepo, courseRepo, f.submissionRepo, cache, time.Minute, logger)
	f.submissions = NewSubmissionService(f.submissionRepo, f.targetRepo, learnerRepo, courseRepo, f.statuses, validate, logger)
	f.grading = NewGradingService(f.submissionRepo, f.targetRepo, courseRepo, validate, activity, f.publisher, grading.BinaryScale(), logger)
	f.feedback = NewFeedbackService(repository.NewFeedbackRepository(db), f.submissionRepo, validate, logger)
	return f
}

// addLevel creates level number with a regular group and, below level 2, a
// milestone group.
func (f *progressFixture) addLevel(t *testing.T, number int) {
	t.Helper()
	level := models.Level{CourseID: f.course.ID, Number: number, Name: "Level"}
	require.NoError(t, f.db.Create(&level).Error)
	f.levels[number] = level

	group := models.TargetGroup{LevelID: level.ID, Name: "Targets"}
	require.NoError(t, f.db.Create(&group).Error)
	f.groups[number] = group

	milestone := models.TargetGroup{LevelID: level.ID, Name: "Milestone", Milestone: true}
	require.NoError(t, f.db.Create(&milestone).Error)
	f.groups[-number] = milestone
}

// targetRequest returns a valid reviewed, resubmittable target on level 2.
func (f *progressFixture) targetRequest() dto.TargetUpsertRequest {
	groupID := f.groups[2].ID
	faculty := testFacultyID
	return dto.TargetUpsertRequest{
		CourseID:       f.course.ID,
		TargetGroupID:  &groupID,
		Title:          "Ship a landing page",
		Role:           models.TargetRoleIndividual,
		Submittability: models.SubmittabilityResubmittable,
		DaysToComplete: intPtr(3),
		FacultyID:      &faculty,
		CriterionIDs:   []uint{f.criteria[0].ID, f.criteria[1].ID},
	}
}

func (f *progressFixture) createTarget(t *testing.T, mutate func(*dto.TargetUpsertRequest)) dto.TargetResponse {
	t.Helper()
	req := f.targetRequest()
	if mutate != nil {
		mutate(&req)
	}
	target, err := f.targets.Create(context.Background(), req, f.faculty)
	require.NoError(t, err)
	return target
}

func (f *progressFixture) submit(t *testing.T, targetID uint) dto.SubmissionResponse {
	t.Helper()
	submission, err := f.submissions.Create(context.Background(), dto.SubmissionCreateRequest{
		TargetID:    targetID,
		LearnerID:   f.learner.ID,
		Description: "Here is my work",
	})
	require.NoError(t, err)
	return submission
}

func (f *progressFixture) commit(t *testing.T, submissionID uint, grades map[uint]int) dto.SubmissionResponse {
	t.Helper()
	req := dto.GradeSubmissionRequest{}
	for criterionID, grade := range grades {
		req.Grades = append(req.Grades, dto.CriterionGradeRequest{CriterionID: criterionID, Grade: grade})
	}
	submission, err := f.grading.Commit(context.Background(), submissionID, req, f.faculty)
	require.NoError(t, err)
	return submission
}

func (f *progressFixture) status(t *testing.T, targetID uint) string {
	t.Helper()
	resolved, err := f.statuses.Resolve(context.Background(), targetID, f.learner.ID)
	require.NoError(t, err)
	return resolved.Status
}

// complete submits and passes every criterion of targetID.
func (f *progressFixture) complete(t *testing.T, targetID uint) {
	t.Helper()
	submission := f.submit(t, targetID)
	f.commit(t, submission.ID, map[uint]int{f.criteria[0].ID: 2, f.criteria[1].ID: 2})
}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

func timePtr() *time.Time {
	at := time.Now().UTC().Add(48 * time.Hour)
	return &at
}
