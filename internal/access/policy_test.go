package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

type fakeEnrollments struct {
	enrolled map[[2]uint]bool
	calls    int
	err      error
}

func (f *fakeEnrollments) IsEnrolled(_ context.Context, studentID, courseID uint) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.enrolled[[2]uint{studentID, courseID}], nil
}

var (
	owner      = &models.Principal{UserID: 1, Role: models.RoleInstructor}
	otherInstr = &models.Principal{UserID: 2, Role: models.RoleInstructor}
	admin      = &models.Principal{UserID: 3, Role: models.RoleAdmin}
	student    = &models.Principal{UserID: 4, Role: models.RoleStudent}
	course     = &models.Course{ID: 10, InstructorID: 1}
	preview    = &models.Lesson{ID: 100, CourseID: 10, Order: 1, IsFreePreview: true}
	locked     = &models.Lesson{ID: 101, CourseID: 10, Order: 2}
)

func TestCanManageCourse(t *testing.T) {
	assert.True(t, CanManageCourse(owner, course))
	assert.True(t, CanManageCourse(admin, course))
	assert.False(t, CanManageCourse(otherInstr, course))
	assert.False(t, CanManageCourse(student, course))
	assert.False(t, CanManageCourse(nil, course))
}

func TestRequireManage(t *testing.T) {
	pol := NewPolicy(&fakeEnrollments{})
	assert.NoError(t, pol.RequireManage(owner, course))
	assert.ErrorIs(t, pol.RequireManage(student, course), errs.ErrPermissionDenied)
	assert.ErrorIs(t, pol.RequireManage(nil, course), errs.ErrUnauthenticated)
}

func TestFreePreviewIsOpenToAnonymous(t *testing.T) {
	fake := &fakeEnrollments{}
	ok, err := NewPolicy(fake).CanAccessLesson(context.Background(), nil, course, preview)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, fake.calls)
}

func TestLockedLessonRequiresEnrollment(t *testing.T) {
	fake := &fakeEnrollments{enrolled: map[[2]uint]bool{}}
	pol := NewPolicy(fake)
	ctx := context.Background()

	ok, err := pol.CanAccessLesson(ctx, nil, course, locked)
	require.NoError(t, err)
	assert.False(t, ok, "anonymous")

	ok, err = pol.CanAccessLesson(ctx, student, course, locked)
	require.NoError(t, err)
	assert.False(t, ok, "unenrolled student")

	fake.enrolled[[2]uint{student.UserID, course.ID}] = true
	ok, err = pol.CanAccessLesson(ctx, student, course, locked)
	require.NoError(t, err)
	assert.True(t, ok, "enrolled student")
}

func TestOwnerAndAdminSkipEnrollmentLookup(t *testing.T) {
	fake := &fakeEnrollments{}
	pol := NewPolicy(fake)
	for _, p := range []*models.Principal{owner, admin} {
		ok, err := pol.CanAccessLesson(context.Background(), p, course, locked)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Zero(t, fake.calls)

	ok, err := pol.CanAccessLesson(context.Background(), otherInstr, course, locked)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, fake.calls)
}

func TestLessonAccessFlagsLooksUpOnce(t *testing.T) {
	fake := &fakeEnrollments{enrolled: map[[2]uint]bool{}}
	lessons := []models.Lesson{*preview, *locked, {ID: 102, CourseID: 10, Order: 3}}

	flags, err := NewPolicy(fake).LessonAccessFlags(context.Background(), student, course, lessons)
	require.NoError(t, err)
	require.Len(t, flags, 3)
	assert.True(t, flags[0].Accessible)
	assert.False(t, flags[1].Accessible)
	assert.False(t, flags[2].Accessible)
	assert.Equal(t, 1, fake.calls)
}

func TestLessonAccessFlagsPropagatesLookupError(t *testing.T) {
	fake := &fakeEnrollments{err: errors.New("db down")}
	_, err := NewPolicy(fake).LessonAccessFlags(context.Background(), student, course, []models.Lesson{*locked})
	assert.Error(t, err)
}
