package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/enrollment"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/testutil"
)

type invalidations struct {
	ids []uint
}

func (c *invalidations) InvalidateQuiz(_ context.Context, id uint) error {
	c.ids = append(c.ids, id)
	return nil
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	svc, db, _ := newServiceWithCache(t)
	return svc, db
}

func newServiceWithCache(t *testing.T) (*Service, *gorm.DB, *invalidations) {
	db := testutil.NewDB(t)
	enrollments := enrollment.NewRepository(db)
	cache := &invalidations{}
	return NewService(NewRepository(db), access.NewPolicy(enrollments), enrollments, cache), db, cache
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "intro-to-go", Slugify("  Intro to Go!  "))
	assert.Equal(t, "c-c-basics", Slugify("C/C++ basics"))
	assert.Equal(t, "course", Slugify("???"))
}

func TestCreateCourseGeneratesUniqueSlugs(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	instructor := testutil.Principal(testutil.CreateUser(t, db, "teacher", models.RoleInstructor))

	a, err := svc.CreateCourse(ctx, instructor, CourseInput{Title: "Go Basics"})
	require.NoError(t, err)
	b, err := svc.CreateCourse(ctx, instructor, CourseInput{Title: "Go basics"})
	require.NoError(t, err)

	assert.Equal(t, "go-basics", a.Slug)
	assert.Equal(t, "go-basics-1", b.Slug)
	assert.Equal(t, models.CourseDraft, a.Status)

	student := testutil.Principal(testutil.CreateUser(t, db, "student", models.RoleStudent))
	_, err = svc.CreateCourse(ctx, student, CourseInput{Title: "Nope"})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestDraftCourseHiddenFromNonManagers(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	c := testutil.CreateCourse(t, db, owner, models.CourseDraft)

	_, err := svc.GetCourse(ctx, testutil.Principal(student), c.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	detail, err := svc.GetCourse(ctx, testutil.Principal(owner), c.ID)
	require.NoError(t, err)
	assert.True(t, detail.CanManage)

	_, err = svc.SetStatus(ctx, testutil.Principal(student), c.ID, models.CoursePublished)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	_, err = svc.SetStatus(ctx, testutil.Principal(owner), c.ID, "live")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.SetStatus(ctx, testutil.Principal(owner), c.ID, models.CoursePublished)
	require.NoError(t, err)

	detail, err = svc.GetCourse(ctx, testutil.Principal(student), c.ID)
	require.NoError(t, err)
	assert.False(t, detail.CanManage)
	assert.False(t, detail.IsEnrolled)
}

func TestLessonOrderIsUniqueWithinCourse(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	p := testutil.Principal(owner)
	c := testutil.CreateCourse(t, db, owner, models.CourseDraft)

	first, err := svc.CreateLesson(ctx, p, c.ID, LessonInput{Title: "One"})
	require.NoError(t, err)
	second, err := svc.CreateLesson(ctx, p, c.ID, LessonInput{Title: "Two"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)

	_, err = svc.CreateLesson(ctx, p, c.ID, LessonInput{Title: "Dup", Order: 2})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestViewLesson(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	c := testutil.CreateCourse(t, db, owner, models.CoursePublished)
	l1 := testutil.CreateLesson(t, db, c, 1, true)
	l2 := testutil.CreateLesson(t, db, c, 2, false)
	l3 := testutil.CreateLesson(t, db, c, 3, false)

	view, err := svc.ViewLesson(ctx, nil, c.ID, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Position)
	assert.Nil(t, view.Prev)
	require.NotNil(t, view.Next)
	assert.Equal(t, l2.ID, view.Next.ID)
	require.Len(t, view.Sidebar, 3)
	assert.True(t, view.Sidebar[0].Accessible)
	assert.False(t, view.Sidebar[1].Accessible)

	_, err = svc.ViewLesson(ctx, testutil.Principal(student), c.ID, l2.ID)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	testutil.Enroll(t, db, student, c)
	view, err = svc.ViewLesson(ctx, testutil.Principal(student), c.ID, l2.ID)
	require.NoError(t, err)
	assert.True(t, view.IsEnrolled)
	assert.Equal(t, l1.ID, view.Prev.ID)
	assert.Equal(t, l3.ID, view.Next.ID)
	for _, f := range view.Sidebar {
		assert.True(t, f.Accessible)
	}

	_, err = svc.ViewLesson(ctx, testutil.Principal(student), c.ID+1, l2.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCheckLessonAccess(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	admin := testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	c := testutil.CreateCourse(t, db, owner, models.CoursePublished)
	locked := testutil.CreateLesson(t, db, c, 1, false)

	for _, u := range []*models.User{owner, admin} {
		ok, err := svc.CheckLessonAccess(ctx, testutil.Principal(u), c.ID, locked.ID)
		require.NoError(t, err)
		assert.True(t, ok, u.Username)
	}
	ok, err := svc.CheckLessonAccess(ctx, nil, c.ID, locked.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteLessonKeepsAttemptHistory(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	c := testutil.CreateCourse(t, db, owner, models.CoursePublished)
	withAttempts := testutil.CreateLesson(t, db, c, 1, false)
	plain := testutil.CreateLesson(t, db, c, 2, false)
	quiz := testutil.CreateQuiz(t, db, withAttempts, models.Quiz{IsPublished: true}, []int{1})
	testutil.CreateQuiz(t, db, plain, models.Quiz{}, []int{1, 2})
	require.NoError(t, db.Create(&models.QuizAttempt{
		StudentID: student.ID, QuizID: quiz.ID, AttemptNumber: 1, Status: models.AttemptInProgress,
	}).Error)

	err := svc.DeleteLesson(ctx, testutil.Principal(owner), withAttempts.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, svc.DeleteLesson(ctx, testutil.Principal(owner), plain.ID))
	var questions int64
	require.NoError(t, db.Model(&models.Question{}).Count(&questions).Error)
	assert.Equal(t, int64(1), questions)
}

func TestDeleteCourse(t *testing.T) {
	svc, db, cache := newServiceWithCache(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)

	taken := testutil.CreateCourse(t, db, owner, models.CoursePublished)
	quiz := testutil.CreateQuiz(t, db, testutil.CreateLesson(t, db, taken, 1, false), models.Quiz{IsPublished: true}, []int{1})
	require.NoError(t, db.Create(&models.QuizAttempt{
		StudentID: student.ID, QuizID: quiz.ID, AttemptNumber: 1, Status: models.AttemptCompleted,
	}).Error)
	err := svc.DeleteCourse(ctx, testutil.Principal(owner), taken.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	c := testutil.CreateCourse(t, db, owner, models.CoursePublished)
	unused := testutil.CreateQuiz(t, db, testutil.CreateLesson(t, db, c, 1, false), models.Quiz{}, []int{1})

	err = svc.DeleteCourse(ctx, testutil.Principal(student), c.ID)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	require.NoError(t, svc.DeleteCourse(ctx, testutil.Principal(owner), c.ID))
	assert.Equal(t, []uint{unused.ID}, cache.ids)

	_, err = svc.GetCourse(ctx, testutil.Principal(owner), c.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	published, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, taken.ID, published[0].ID)

	var kept int64
	require.NoError(t, db.Unscoped().Model(&models.Course{}).Where("id = ?", c.ID).Count(&kept).Error)
	assert.Equal(t, int64(1), kept)
}

func TestCourseChangesInvalidateCachedQuizzes(t *testing.T) {
	svc, db, cache := newServiceWithCache(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	p := testutil.Principal(owner)
	c := testutil.CreateCourse(t, db, owner, models.CourseDraft)
	first := testutil.CreateLesson(t, db, c, 1, false)
	second := testutil.CreateLesson(t, db, c, 2, false)
	testutil.CreateLesson(t, db, c, 3, false)
	q1 := testutil.CreateQuiz(t, db, first, models.Quiz{}, []int{1})
	q2 := testutil.CreateQuiz(t, db, second, models.Quiz{}, []int{1})

	_, err := svc.SetStatus(ctx, p, c.ID, models.CoursePublished)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{q1.ID, q2.ID}, cache.ids)

	cache.ids = nil
	_, err = svc.UpdateLesson(ctx, p, second.ID, LessonInput{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, []uint{q2.ID}, cache.ids)

	cache.ids = nil
	require.NoError(t, svc.DeleteLesson(ctx, p, first.ID))
	assert.Equal(t, []uint{q1.ID}, cache.ids)
}
