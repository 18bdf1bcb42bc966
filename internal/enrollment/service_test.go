package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/testutil"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewDB(t)
	repo := NewRepository(db)
	return NewService(repo, access.NewPolicy(repo)), db
}

func totalEnrollments(t *testing.T, db *gorm.DB, courseID uint) int {
	var c models.Course
	require.NoError(t, db.First(&c, courseID).Error)
	return c.TotalEnrollments
}

func TestEnrollmentCountIsRecounted(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	course := testutil.CreateCourse(t, db, instructor, models.CoursePublished)

	var students []*models.User
	for _, name := range []string{"s1", "s2", "s3"} {
		s := testutil.CreateUser(t, db, name, models.RoleStudent)
		_, err := svc.Enroll(ctx, testutil.Principal(s), course.ID)
		require.NoError(t, err)
		students = append(students, s)
	}
	assert.Equal(t, 3, totalEnrollments(t, db, course.ID))

	require.NoError(t, svc.Unenroll(ctx, testutil.Principal(students[0]), course.ID, students[0].ID))
	assert.Equal(t, 2, totalEnrollments(t, db, course.ID))

	// Drift in the stored counter is corrected by the next write.
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", course.ID).UpdateColumn("total_enrollments", 99).Error)
	require.NoError(t, svc.Unenroll(ctx, testutil.Principal(instructor), course.ID, students[1].ID))
	assert.Equal(t, 1, totalEnrollments(t, db, course.ID))
}

func TestEnrollRules(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	draft := testutil.CreateCourse(t, db, instructor, models.CourseDraft)
	published := testutil.CreateCourse(t, db, instructor, models.CoursePublished)

	_, err := svc.Enroll(ctx, testutil.Principal(student), draft.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Enroll(ctx, nil, published.ID)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = svc.Enroll(ctx, testutil.Principal(student), published.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, testutil.Principal(student), published.ID)
	assert.ErrorIs(t, err, errs.ErrAlreadyEnrolled)
	assert.Equal(t, 1, totalEnrollments(t, db, published.ID))
}

func TestUnenrollOtherStudentRequiresManager(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	a := testutil.CreateUser(t, db, "a", models.RoleStudent)
	b := testutil.CreateUser(t, db, "b", models.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor, models.CoursePublished)
	testutil.Enroll(t, db, a, course)

	err := svc.Unenroll(ctx, testutil.Principal(b), course.ID, a.ID)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	err = svc.Unenroll(ctx, testutil.Principal(b), course.ID, b.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateProgressReachesCompletion(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor, models.CoursePublished)
	testutil.CreateLesson(t, db, course, 1, false)
	e := testutil.Enroll(t, db, student, course)
	p := testutil.Principal(student)

	var got *models.Enrollment
	var err error
	for i := 1; i <= 9; i++ {
		got, err = svc.UpdateProgress(ctx, p, e.ID)
		require.NoError(t, err)
		assert.Equal(t, i*10, got.Progress)
		assert.Equal(t, models.EnrollmentInProgress, got.Status)
		assert.Nil(t, got.CompletedAt)
	}

	got, err = svc.UpdateProgress(ctx, p, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, models.EnrollmentCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	completedAt := *got.CompletedAt

	got, err = svc.UpdateProgress(ctx, p, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.True(t, completedAt.Equal(*got.CompletedAt))

	_, err = svc.UpdateProgress(ctx, testutil.Principal(instructor), e.ID)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestAdvanceWithoutLessons(t *testing.T) {
	e := &models.Enrollment{Status: models.EnrollmentActive, Progress: 30}
	assert.False(t, advance(e, 0, time.Now()))
	assert.Equal(t, 0, e.Progress)
	assert.Equal(t, models.EnrollmentActive, e.Status)
}

func TestCourseStudentsIsManagerOnly(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor, models.CoursePublished)
	testutil.Enroll(t, db, student, course)

	_, err := svc.CourseStudents(ctx, testutil.Principal(student), course.ID)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	list, err := svc.CourseStudents(ctx, testutil.Principal(instructor), course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "student", list[0].Username)
}
