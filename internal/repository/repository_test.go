package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type curriculumFixture struct {
	course  models.Course
	levels  []models.Level
	groups  []models.TargetGroup
	learner models.Learner
}

// seedCurriculum creates a course with two levels, a milestone group on level
// one, a regular group on level two and a learner on level two.
func seedCurriculum(t *testing.T, db *gorm.DB) curriculumFixture {
	t.Helper()
	fixture := curriculumFixture{course: models.Course{Name: "Founders", MaxGrade: 2}}
	require.NoError(t, db.Create(&fixture.course).Error)

	for number := 1; number <= 2; number++ {
		level := models.Level{CourseID: fixture.course.ID, Number: number, Name: "Level"}
		require.NoError(t, db.Create(&level).Error)
		fixture.levels = append(fixture.levels, level)

		group := models.TargetGroup{LevelID: level.ID, Name: "Group", Milestone: number == 1}
		require.NoError(t, db.Create(&group).Error)
		fixture.groups = append(fixture.groups, group)
	}

	fixture.learner = models.Learner{
		CourseID: fixture.course.ID,
		LevelID:  fixture.levels[1].ID,
		Name:     "Ada",
		Email:    uuid.NewString() + "@example.com",
	}
	require.NoError(t, db.Create(&fixture.learner).Error)
	return fixture
}

func days(n int) *int {
	return &n
}

func uintPtr(v uint) *uint {
	return &v
}
